package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshmarlow/data-schema/pkg/docs"
)

// schemaDocsCmd represents the schema docs command
var schemaDocsCmd = &cobra.Command{
	Use:   "docs <name>",
	Short: "Print the data dictionary of a schema",
	Long: `Print the data dictionary of a schema as Markdown or HTML.

Example:
  dataschemactl schema docs readings
  dataschemactl schema docs readings --html > readings.html`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		asHTML, _ := cmd.Flags().GetBool("html")

		if err := printSchemaDocs(args[0], asHTML); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render docs: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	schemaCmd.AddCommand(schemaDocsCmd)
	schemaDocsCmd.Flags().Bool("html", false, "render HTML instead of Markdown")
}

func printSchemaDocs(name string, asHTML bool) error {
	env, err := connect()
	if err != nil {
		return err
	}
	defer env.close()

	ds, err := env.store.FetchDataSchema(name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if !asHTML {
		fmt.Print(docs.Markdown(ds))
		return nil
	}
	page, err := docs.HTML(ds)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(page)
	return err
}

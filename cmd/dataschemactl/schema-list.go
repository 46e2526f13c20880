package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// schemaListCmd represents the schema list command
var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List data schemas",
	Long: `List data schemas with their model and field count.

Example:
  dataschemactl schema list
  dataschemactl schema list --output json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := listSchemas(output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list schemas: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	schemaCmd.AddCommand(schemaListCmd)
	schemaListCmd.Flags().StringP("output", "o", "text", "Output format (text, json or yaml)")
}

func listSchemas(output string) error {
	env, err := connect()
	if err != nil {
		return err
	}
	defer env.close()

	schemas, err := env.store.ListDataSchemas()
	if err != nil {
		return err
	}

	if output != "text" {
		out, err := formatOutput(schemas, output)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODEL\tFIELDS")
	for _, ds := range schemas {
		model := "-"
		if ds.ModelContentType != nil {
			model = ds.ModelContentType.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", ds.Name, model, len(ds.Fields))
	}
	return tw.Flush()
}

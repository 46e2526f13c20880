package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// schemaShowCmd represents the schema show command
var schemaShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a data schema",
	Long: `Show a data schema with its fields.

The YAML output can be loaded again with "dataschemactl schema load".

Example:
  dataschemactl schema show readings
  dataschemactl schema show readings --output json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		if err := showSchema(args[0], output); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to show schema: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	schemaCmd.AddCommand(schemaShowCmd)
	schemaShowCmd.Flags().StringP("output", "o", "yaml", "Output format (json or yaml)")
}

func showSchema(name, output string) error {
	env, err := connect()
	if err != nil {
		return err
	}
	defer env.close()

	ds, err := env.store.FetchDataSchema(name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	out, err := formatOutput(ds, output)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

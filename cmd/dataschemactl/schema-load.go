package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshmarlow/data-schema/pkg/loader"
)

// schemaLoadCmd represents the schema load command
var schemaLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load schema definitions from a YAML file",
	Long: `Load schema definitions from a YAML file.

The file holds a list of schemas or a single schema. Schemas that do not
exist are created. The fields of existing schemas are replaced by the
fields in the file. All definitions are applied in one transaction.

Example:
  dataschemactl schema load schemas.yml
  dataschemactl schema load --dry-run schemas.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		result, err := loadSchemaFile(args[0], dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load schemas: %v\n", err)
			os.Exit(1)
		}

		output, _ := formatOutput(result, "json")
		fmt.Print(output)
	},
}

func init() {
	schemaCmd.AddCommand(schemaLoadCmd)
	schemaLoadCmd.Flags().Bool("dry-run", false, "validate and apply the definitions, then roll back")
}

func loadSchemaFile(filename string, dryRun bool) (*loader.LoadResult, error) {
	env, err := connect()
	if err != nil {
		return nil, err
	}
	defer env.close()

	return loadSchemas(env, filename, dryRun)
}

func loadSchemas(env *environment, filename string, dryRun bool) (*loader.LoadResult, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return loader.NewLoader(env.store).
		WithLogger(env.logger).
		WithAudit(env.audit, operator()).
		WithDryRun(dryRun).
		LoadFromReader(file)
}

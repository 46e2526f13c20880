package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joshmarlow/data-schema/pkg/audit"
)

// schemaDeleteCmd represents the schema delete command
var schemaDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a data schema and its fields",
	Long: `Delete a data schema and its fields.

Example:
  dataschemactl schema delete readings`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := deleteSchema(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Schema '%s' deleted\n", args[0])
	},
}

func init() {
	schemaCmd.AddCommand(schemaDeleteCmd)
}

func deleteSchema(name string) error {
	env, err := connect()
	if err != nil {
		return err
	}
	defer env.close()

	err = env.store.DeleteDataSchema(name)
	event := audit.SchemaChangeEvent{
		Subject:   operator(),
		Schema:    name,
		Operation: audit.OperationDelete,
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	env.audit.Log(event)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	env.logger.Info("schema deleted", zap.String("schema", name))
	return nil
}

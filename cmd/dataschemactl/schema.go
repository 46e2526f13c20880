package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// schemaCmd represents the schema command
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage data schemas",
	Long:  `Load, inspect and delete data schemas.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'schema' requires a subcommand (load, watch, list, show, docs, delete)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

// formatOutput renders v as indented JSON or as YAML
func formatOutput(v any, output string) (string, error) {
	switch output {
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out) + "\n", nil
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "", fmt.Errorf("unknown output format %q", output)
	}
}

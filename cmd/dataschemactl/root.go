package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dataschemactl",
	Short: "Manage data schemas and run the data-schema server",
	Long: `Manage data schemas and run the data-schema server.

Data schemas describe how loosely typed records are converted into typed
values. Schemas are kept in PostgreSQL and served over HTTP.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "covergate",
	Short: "Fail the build when test coverage is below a threshold",
	Long: `Read a Go cover profile and fail when total statement coverage is below a threshold.

Example:
  go test -coverprofile=coverage.out ./pkg/...
  covergate --profile coverage.out --min 100`,
	Args: cobra.NoArgs,
	RunE: runGate,
}

func init() {
	rootCmd.Flags().StringP("profile", "p", "coverage.out", "Path to the cover profile")
	rootCmd.Flags().Float64("min", 100, "Minimum total coverage percentage")
	rootCmd.Flags().StringSlice("exclude", []string{"db/migrations"}, "Skip files whose path contains any of these")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

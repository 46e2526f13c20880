package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshmarlow/data-schema/pkg/schema"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <schema> [records.json]",
	Short: "Convert records with a data schema",
	Long: `Convert records with a data schema.

The input is a JSON array of records read from the file, or from stdin when
no file or "-" is given. Each record is a list, read by field position, or an
object, read by field key. The converted values and unique key of every
record are printed as JSON.

Example:
  dataschemactl convert readings records.json
  cat records.json | dataschemactl convert readings`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		source := "-"
		if len(args) > 1 {
			source = args[1]
		}

		records, err := convertFile(args[0], source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Conversion failed: %v\n", err)
			os.Exit(1)
		}

		output, _ := formatOutput(records, "json")
		fmt.Print(output)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func convertFile(name, source string) ([]schema.Record, error) {
	var in io.Reader = os.Stdin
	if source != "-" {
		file, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open records: %w", err)
		}
		defer func() { _ = file.Close() }()
		in = file
	}

	records, err := readRecords(in)
	if err != nil {
		return nil, err
	}

	env, err := connect()
	if err != nil {
		return nil, err
	}
	defer env.close()

	ds, err := env.store.FetchDataSchema(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return convertAll(ds, records)
}

// readRecords decodes a JSON array of records, keeping numbers as json.Number
func readRecords(r io.Reader) ([]any, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var records []any
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("records must be a JSON array: %w", err)
	}
	return records, nil
}

func convertAll(ds *schema.DataSchema, records []any) ([]schema.Record, error) {
	converted, index, err := ds.ConvertRecords(records)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", index, err)
	}
	return converted, nil
}

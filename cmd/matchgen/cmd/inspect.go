package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"golang-matchgen/internal/codec"
	"golang-matchgen/internal/report"
	perrors "golang-matchgen/pkg/errors"
)

var inspectFormat string

var inspectCmd = &cobra.Command{
	Use:   "inspect <dataset-file>",
	Short: "Summarize a dataset file",
	Long: `Inspect parses a dataset file and prints its summary: case counts by
expected state and relationship kind, entity totals, and any warnings the
importer raised.

Examples:
  matchgen inspect dataset.json
  matchgen inspect dataset.json --format json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateInspectFlags,
	RunE:    runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "console", "output format: console, json")
}

func validateInspectFlags(cmd *cobra.Command, args []string) error {
	switch report.Format(inspectFormat) {
	case report.FormatConsole, report.FormatJSON:
		return nil
	}
	return perrors.New(perrors.CategoryValidation, perrors.CodeMissingField,
		"unknown output format: "+inspectFormat).
		WithSuggestion("valid formats: console, json")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return perrors.FileError(perrors.CodeFileNotFound, path, err)
		}
		return perrors.FileError(perrors.CodeFileUnreadable, path, err)
	}

	result, err := codec.ParseImport(data)
	if err != nil {
		return err
	}

	summary := report.Summarize(result.Dataset, result.Warnings)
	return summary.Render(os.Stdout, report.Format(inspectFormat))
}

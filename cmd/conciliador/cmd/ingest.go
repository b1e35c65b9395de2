package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"conciliador/internal/parsers"
	"conciliador/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ingestCmd parses files and reports what was extracted, without running
// the matching engine. Useful for checking a file before conciliating.
var ingestCmd = &cobra.Command{
	Use:   "ingest <file> [file...]",
	Short: "Parse financial documents and report the extracted records",
	Long: `Ingest routes each file to the parser matching its format (CSV, XLSX,
OFX or CNAB 240/400 return file) and reports the receivables and payments
extracted, along with any rows that could not be parsed.

Examples:
  conciliador ingest cobranca.csv
  conciliador ingest extrato.ofx retorno.ret
  conciliador ingest cobranca.xlsx --output-format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// ingestSummary is the per-file JSON output of the ingest command.
type ingestSummary struct {
	Filename string               `json:"filename"`
	Result   *parsers.ParseResult `json:"result"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	router := parsers.NewRouter()
	format := viper.GetString("output-format")

	var summaries []ingestSummary
	for _, path := range args {
		content, err := readInputFile(path)
		if err != nil {
			return err
		}

		result, err := router.Parse(content, path)
		if err != nil {
			return err
		}

		if format == "json" {
			summaries = append(summaries, ingestSummary{Filename: path, Result: result})
			continue
		}

		fmt.Printf("%s\n", path)
		fmt.Printf("  receivables: %d\n", len(result.Receivables))
		fmt.Printf("  payments:    %d\n", len(result.Payments))
		if result.HasErrors() {
			fmt.Printf("  skipped rows:\n")
			for _, rowErr := range result.Errors {
				fmt.Printf("    row %d: %s\n", rowErr.Row, rowErr.Err)
			}
		}
	}

	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summaries)
	}
	return nil
}

// readInputFile reads a file, mapping filesystem failures to categorized
// errors so the CLI exits with the file error code.
func readInputFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	return content, nil
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"conciliador/cmd/conciliador/config"
	"conciliador/internal/conciliation"
	"conciliador/internal/models"
	"conciliador/internal/parsers"
	"conciliador/internal/report"
	"conciliador/internal/store"
	"conciliador/pkg/errors"
	"conciliador/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	receivableFiles []string
	paymentFiles    []string
	outputFile      string
)

// conciliateCmd ingests both sides into a fresh session scope and runs the
// matching engine over it.
var conciliateCmd = &cobra.Command{
	Use:   "conciliate",
	Short: "Match payments against receivables across ingested files",
	Long: `Conciliate ingests receivable files and payment files into one session,
scores every (receivable, payment) pair, greedily claims the best pairs and
reports the matches and everything left unmatched.

Records follow their own classification: a refund row in a receivable file
still lands on the payment side, and a settled instrument in a bank return
file contributes to both sides.

Examples:
  conciliador conciliate --receivables cobranca.csv --payments extrato.ofx
  conciliador conciliate -r cobranca.xlsx -r avulsos.csv -p retorno.ret
  conciliador conciliate -r cobranca.csv -p extrato.ofx -f json -o report.json`,
	PreRunE: validateConciliateFlags,
	RunE:    runConciliate,
}

func init() {
	rootCmd.AddCommand(conciliateCmd)

	conciliateCmd.Flags().StringSliceVarP(&receivableFiles, "receivables", "r", []string{}, "receivable files (required)")
	conciliateCmd.Flags().StringSliceVarP(&paymentFiles, "payments", "p", []string{}, "payment files (required)")
	conciliateCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	conciliateCmd.MarkFlagRequired("receivables")
	conciliateCmd.MarkFlagRequired("payments")
}

func validateConciliateFlags(cmd *cobra.Command, args []string) error {
	if len(receivableFiles) == 0 {
		return errors.ConfigurationError(errors.CodeMissingConfig, "receivables", nil, nil)
	}
	if len(paymentFiles) == 0 {
		return errors.ConfigurationError(errors.CodeMissingConfig, "payments", nil, nil)
	}

	if _, err := config.CreateReportFormat(viper.GetString("output-format")); err != nil {
		return err
	}
	return nil
}

func runConciliate(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger().WithComponent("cli")

	st := store.NewMemoryStore()
	scope := models.SessionScope(uuid.New())
	router := parsers.NewRouter()

	ingest := func(files []string) error {
		for _, path := range files {
			content, err := readInputFile(path)
			if err != nil {
				return err
			}
			result, err := router.Parse(content, path)
			if err != nil {
				return err
			}
			for _, r := range result.Receivables {
				r.Scope = scope
			}
			for _, p := range result.Payments {
				p.Scope = scope
			}
			st.AddReceivables(result.Receivables)
			st.AddPayments(result.Payments)

			if result.HasErrors() {
				log.WithFields(logger.Fields{
					"filename":     path,
					"skipped_rows": len(result.Errors),
				}).Warn("Some rows could not be parsed")
			}
		}
		return nil
	}

	if err := ingest(receivableFiles); err != nil {
		return err
	}
	if err := ingest(paymentFiles); err != nil {
		return err
	}

	scoreConfig, err := config.CreateScoreConfig()
	if err != nil {
		return err
	}

	result, err := conciliation.NewEngine(st, scoreConfig).Run(scope)
	if err != nil {
		return err
	}

	doc := report.Build(result)
	format, err := config.CreateReportFormat(viper.GetString("output-format"))
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return errors.FileError(errors.CodeFilePermission, outputFile, err)
		}
		defer f.Close()
		out = f
	}

	if err := report.Render(doc, format, out); err != nil {
		return err
	}
	if outputFile != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outputFile)
	}
	return nil
}

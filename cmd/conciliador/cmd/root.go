package cmd

import (
	"fmt"
	"os"

	"conciliador/cmd/conciliador/config"
	"conciliador/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	verbose      bool
	outputFormat string
	version      = "dev"
	commit       = "unknown"
	date         = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "conciliador",
	Short: "Financial document ingestion and conciliation tool",
	Long: `Conciliador ingests billing reports and bank statements (CSV, XLSX,
OFX and CNAB 240/400 return files), normalizes them into receivables and
payments, and conciliates the two sides with confidence-scored matching.

Examples:
  conciliador ingest cobranca.csv
  conciliador conciliate --receivables cobranca.xlsx --payments extrato.ofx
  conciliador conciliate -r cobranca.csv -p retorno.ret -f json`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output-format", "f", "text", "output format: text, json")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("output-format", rootCmd.PersistentFlags().Lookup("output-format"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
	}

	viper.SetEnvPrefix("CONCILIADOR")
	viper.AutomaticEnv()

	if log, err := logger.NewLogger(config.CreateLoggerConfig(viper.GetBool("verbose"))); err == nil {
		logger.SetGlobalLogger(log)
	}
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}

// Package config builds component configurations for the CLI from viper
// settings, so a config file or CONCILIADOR_* environment variables can
// override the defaults.
package config

import (
	"conciliador/internal/conciliation"
	"conciliador/internal/report"
	"conciliador/pkg/errors"
	"conciliador/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Viper keys for score tuning. Only the tolerances are tunable; the point
// weights are the production calibration.
const (
	KeyExactTolerance = "score.exact_tolerance"
	KeyCloseTolerance = "score.close_tolerance"
	KeyFuzzyTolerance = "score.fuzzy_tolerance"
)

// CreateLoggerConfig returns the logger configuration for the CLI.
func CreateLoggerConfig(verbose bool) *logger.Config {
	if verbose {
		return logger.DebugConfig()
	}
	return logger.DefaultConfig()
}

// CreateScoreConfig returns the scoring configuration, applying any value
// tolerance overrides found in viper.
func CreateScoreConfig() (*conciliation.ScoreConfig, error) {
	cfg := conciliation.DefaultScoreConfig()

	overrides := []struct {
		key    string
		target *decimal.Decimal
	}{
		{KeyExactTolerance, &cfg.ExactValueTolerance},
		{KeyCloseTolerance, &cfg.CloseValueTolerance},
		{KeyFuzzyTolerance, &cfg.FuzzyValueTolerance},
	}
	for _, o := range overrides {
		if viper.IsSet(o.key) {
			*o.target = decimal.NewFromFloat(viper.GetFloat64(o.key))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "score tolerances", nil, err)
	}
	return cfg, nil
}

// CreateReportFormat validates and returns the requested output format.
func CreateReportFormat(format string) (report.OutputFormat, error) {
	f := report.OutputFormat(format)
	if !f.IsValid() {
		return "", errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", format, nil).
			WithSuggestion("supported formats: text, json")
	}
	return f, nil
}

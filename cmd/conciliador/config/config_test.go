package config

import (
	"testing"

	"conciliador/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

func TestCreateLoggerConfig(t *testing.T) {
	if cfg := CreateLoggerConfig(false); cfg.Level != logger.InfoLevel {
		t.Errorf("default level = %s, want info", cfg.Level)
	}
	if cfg := CreateLoggerConfig(true); cfg.Level != logger.DebugLevel {
		t.Errorf("verbose level = %s, want debug", cfg.Level)
	}
}

func TestCreateScoreConfigDefaults(t *testing.T) {
	viper.Reset()

	cfg, err := CreateScoreConfig()
	if err != nil {
		t.Fatalf("CreateScoreConfig() error = %v", err)
	}
	if !cfg.FuzzyValueTolerance.Equal(decimal.NewFromFloat(0.05)) {
		t.Errorf("FuzzyValueTolerance = %s, want 0.05", cfg.FuzzyValueTolerance)
	}
}

func TestCreateScoreConfigOverrides(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set(KeyFuzzyTolerance, 0.1)

	cfg, err := CreateScoreConfig()
	if err != nil {
		t.Fatalf("CreateScoreConfig() error = %v", err)
	}
	if !cfg.FuzzyValueTolerance.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("FuzzyValueTolerance = %s, want overridden 0.1", cfg.FuzzyValueTolerance)
	}
	if !cfg.ExactValueTolerance.Equal(decimal.NewFromFloat(0.001)) {
		t.Errorf("ExactValueTolerance = %s, want default 0.001", cfg.ExactValueTolerance)
	}
}

func TestCreateScoreConfigRejectsUnorderedTolerances(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set(KeyExactTolerance, 0.5)

	if _, err := CreateScoreConfig(); err == nil {
		t.Error("expected error for exact tolerance above fuzzy tolerance")
	}
}

func TestCreateReportFormat(t *testing.T) {
	if _, err := CreateReportFormat("text"); err != nil {
		t.Errorf("text should be valid, got %v", err)
	}
	if _, err := CreateReportFormat("json"); err != nil {
		t.Errorf("json should be valid, got %v", err)
	}
	if _, err := CreateReportFormat("csv"); err == nil {
		t.Error("csv should be rejected")
	}
}

package cmd

import (
	"fmt"
	"os"

	"conciliador/pkg/errors"
	"conciliador/pkg/logger"

	"github.com/spf13/viper"
)

// HandleError prints a user-facing message for err and returns the process
// exit code. Categorized errors carry their own exit code and suggestion;
// anything else exits 1.
func HandleError(err error) int {
	if err == nil {
		return 0
	}

	logger.GetGlobalLogger().WithComponent("cli").WithError(err).Error("Command failed")

	appErr, ok := errors.AsConciliadorError(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", appErr.Message)

	if len(appErr.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range appErr.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if appErr.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", appErr.Suggestion)
	}

	if viper.GetBool("verbose") && appErr.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", appErr.Cause)
	}

	return appErr.GetExitCode()
}

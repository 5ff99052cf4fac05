package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"golang-matchgen/pkg/errors"
	"golang-matchgen/pkg/logger"
)

// CLIErrorHandler turns errors into user-facing messages and exit codes.
type CLIErrorHandler struct {
	logger  logger.Logger
	verbose bool
}

// NewCLIErrorHandler creates a new CLI error handler.
func NewCLIErrorHandler() *CLIErrorHandler {
	return &CLIErrorHandler{
		logger:  logger.Global().WithComponent("cli"),
		verbose: viper.GetBool("verbose"),
	}
}

// HandleError prints the error and returns the process exit code.
func (h *CLIErrorHandler) HandleError(err error) int {
	if err == nil {
		return 0
	}

	h.logger.WithError(err).Error("Command failed")

	if genErr, ok := errors.AsGeneratorError(err); ok {
		return h.handleGeneratorError(genErr)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func (h *CLIErrorHandler) handleGeneratorError(err *errors.GeneratorError) int {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err.Message)

	if len(err.Context) > 0 {
		fmt.Fprintf(os.Stderr, "\nContext:\n")
		for key, value := range err.Context {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", key, value)
		}
	}

	if err.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestion: %s\n", err.Suggestion)
	}

	if h.verbose && err.Cause != nil {
		fmt.Fprintf(os.Stderr, "\nUnderlying error: %v\n", err.Cause)
	}

	return err.ExitCode()
}

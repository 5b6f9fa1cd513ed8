package cli

import (
	"fmt"
	"os"

	"github.com/wbaxter3/codex-telegram-bridge/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a bridge.yml or pass --config.\n")
		return err

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(os.Stderr, "❌ Configuration is invalid: %v\n", err)
		return err

	case errors.ErrCodeNotARepository:
		if bridgeErr, ok := err.(*errors.BridgeError); ok {
			fmt.Fprintf(os.Stderr, "❌ %v is not a git repository\n", bridgeErr.Details["dir"])
			fmt.Fprintf(os.Stderr, "Point repo.dir at a checked-out working directory.\n")
		}
		return err

	case errors.ErrCodeTaskSpawn:
		if bridgeErr, ok := err.(*errors.BridgeError); ok {
			fmt.Fprintf(os.Stderr, "❌ Could not start %v. Make sure it is installed and on PATH.\n",
				bridgeErr.Details["binary"])
		}
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		if h.Verbose {
			if bridgeErr, ok := err.(*errors.BridgeError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", bridgeErr.ToJSON())
			}
		}
		return err
	}
}

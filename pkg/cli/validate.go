package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sockline/sockline/pkg/config"
)

var validateJSON bool

// validateCmd is the Cobra command for "sockline validate".
var validateCmd = &cobra.Command{
	Use:   "validate <options-file>",
	Short: "Validate a socket options file without connecting",
	Long: `Validate a YAML or JSON options file and print the resolved
configuration, or every invalid field with its error code.

Examples:
  sockline validate socket.yaml
  sockline validate --json socket.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return runValidate(args[0])
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(path string) error {
	opts, err := config.LoadOptions(path)
	if err != nil {
		return err
	}

	cfg, err := config.Validate(opts)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			printFieldErrors(verr)
		}
		return fmt.Errorf("%s is invalid", path)
	}

	if validateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"valid":                   true,
			"endpoint":                cfg.Endpoint.String(),
			"heartbeatIntervalMillis": int(cfg.HeartbeatInterval / time.Millisecond),
			"headers":                 cfg.Headers,
			"jsonCodec":               cfg.JSONCodec,
			"reconnectBackoffMillis":  cfg.ReconnectBackoff,
			"rejoinBackoffMillis":     cfg.RejoinBackoff,
			"transportOptions":        cfg.TransportOptions,
		})
	}

	fmt.Printf("%s is valid\n", path)
	fmt.Printf("  endpoint:           %s\n", cfg.Endpoint)
	if cfg.HeartbeatInterval > 0 {
		fmt.Printf("  heartbeat interval: %s\n", cfg.HeartbeatInterval)
	} else {
		fmt.Printf("  heartbeat interval: disabled\n")
	}
	fmt.Printf("  headers:            %d pair(s)\n", len(cfg.Headers))
	fmt.Printf("  codec:              %s\n", cfg.JSONCodec)
	fmt.Printf("  reconnect backoff:  %v\n", []time.Duration(cfg.ReconnectBackoff))
	fmt.Printf("  rejoin backoff:     %v\n", []time.Duration(cfg.RejoinBackoff))
	fmt.Printf("  transport options:  %v\n", cfg.TransportOptions)
	return nil
}

func printFieldErrors(verr *config.ValidationError) {
	if validateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{"valid": false, "errors": verr.Errors})
		return
	}
	for _, fe := range verr.Errors {
		fmt.Fprintf(os.Stderr, "  %s [%s]: %s\n", fe.Field, fe.Code, fe.Message)
	}
}

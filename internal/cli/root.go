package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/ydbrpc/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "ydbrpc",
	Short: "Authenticated gRPC client for YDB",
	Long: `ydbrpc obtains call credentials for a YDB database and issues
authenticated calls against it.

Credentials come from a static token, a service-account key exchanged for
an IAM token, or the metadata service of the hosting cloud (GCE-compatible,
Azure or AWS).

Settings are resolved from flags, then YDB_* environment variables (a .env
file is loaded first), then ydbrpc.yaml in the config directory.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or credentials setup
  11 - Endpoint unreachable or call deadline exceeded
  12 - Credentials could not be obtained
  13 - Remote operation returned a non-success status`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file (rotated)")
	rootCmd.PersistentFlags().String("config-dir", ".", "Directory containing ydbrpc.yaml")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// newLogger builds the command logger from the persistent flags.
func newLogger(cmd *cobra.Command) *logging.ZapLogger {
	logFile, _ := cmd.Flags().GetString("log-file")
	return logging.New(logging.Options{
		Verbose: getVerboseFlag(cmd),
		Output:  cmd.ErrOrStderr(),
		File:    logFile,
	})
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

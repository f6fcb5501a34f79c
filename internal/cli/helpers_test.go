package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag of cmd to its default and clears Changed.
func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

// clearYDBEnv keeps the developer's environment out of resolution.
func clearYDBEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"YDB_ENDPOINT", "YDB_DATABASE", "YDB_ACCESS_TOKEN_CREDENTIALS",
		"YDB_SERVICE_ACCOUNT_KEY_FILE_CREDENTIALS", "YDB_METADATA_CREDENTIALS",
		"YDB_SSL_ROOT_CERTIFICATES_FILE",
	} {
		t.Setenv(name, "")
	}
}

// runRoot executes the CLI with args and returns stdout and stderr.
func runRoot(t *testing.T, sub *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(t, sub)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

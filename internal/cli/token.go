package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vvka-141/ydbrpc/internal/auth"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the metadata attached to authenticated calls",
	Long: `Resolves credentials and prints the headers every authenticated call
would carry. The token is masked when stdout is a terminal unless --show
is given.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

type tokenFlagValues struct {
	conn connectionFlags
	show bool
}

var tokenFlags tokenFlagValues

func init() {
	rootCmd.AddCommand(tokenCmd)
	addConnectionFlags(tokenCmd, &tokenFlags.conn)
	tokenCmd.Flags().BoolVar(&tokenFlags.show, "show", false, "Print the token unmasked on terminals")
}

// isTerminal is replaced in tests.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runToken(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)
	defer logger.Close()

	configDir, _ := cmd.Flags().GetString("config-dir")
	file, err := loadClientConfig(configDir)
	if err != nil {
		return err
	}
	cfg, err := resolveConnection(cmd, tokenFlags.conn, loadEnvConnection(), file)
	if err != nil {
		return err
	}
	logConnectionVerbose(logger, cfg)

	ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.Timeout)
	defer cancel()

	creds, err := auth.NewCredentials(ctx, cfg, auth.Options{Logger: logger})
	if err != nil {
		return err
	}
	if closer, ok := creds.(io.Closer); ok {
		defer closer.Close()
	}

	md, err := creds.AuthMetadata(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	mask := !tokenFlags.show && isTerminal(out)
	for _, h := range md {
		value := h.Value
		if mask && strings.EqualFold(h.Name, ydbrpc.HeaderAuthTicket) {
			value = maskToken(value)
		}
		fmt.Fprintf(out, "%s: %s\n", h.Name, value)
	}
	return nil
}

// maskToken keeps just enough of a token to tell tokens apart.
func maskToken(token string) string {
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

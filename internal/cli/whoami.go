package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vvka-141/ydbrpc/internal/auth"
	"github.com/vvka-141/ydbrpc/internal/metrics"
	"github.com/vvka-141/ydbrpc/internal/retry"
	"github.com/vvka-141/ydbrpc/internal/rpc"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the user the database authenticates these credentials as",
	Long: `Calls the discovery service's WhoAmI method over an authenticated
channel and prints the user (and groups with --groups).

Transient failures are retried with exponential backoff. Each attempt is
bounded by --call-timeout; the whole command by --timeout.`,
	Args: cobra.NoArgs,
	RunE: runWhoAmI,
}

type whoamiFlagValues struct {
	conn        connectionFlags
	groups      bool
	retries     int
	callTimeout time.Duration
	metrics     bool
}

var whoamiFlags whoamiFlagValues

func init() {
	rootCmd.AddCommand(whoamiCmd)
	addConnectionFlags(whoamiCmd, &whoamiFlags.conn)
	whoamiCmd.Flags().BoolVar(&whoamiFlags.groups, "groups", false, "Also print the user's groups")
	whoamiCmd.Flags().IntVar(&whoamiFlags.retries, "retries", 3, "Retries for transient failures")
	whoamiCmd.Flags().DurationVar(&whoamiFlags.callTimeout, "call-timeout", 10*time.Second, "Deadline for a single attempt")
	whoamiCmd.Flags().BoolVar(&whoamiFlags.metrics, "metrics", false, "Print call and credential metrics to stderr when done")
}

// extraChannelOptions is appended to the channel options; tests dial in-memory servers through it.
var extraChannelOptions []rpc.Option

func runWhoAmI(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd)
	defer logger.Close()

	configDir, _ := cmd.Flags().GetString("config-dir")
	file, err := loadClientConfig(configDir)
	if err != nil {
		return err
	}
	cfg, err := resolveConnection(cmd, whoamiFlags.conn, loadEnvConnection(), file)
	if err != nil {
		return err
	}
	logConnectionVerbose(logger, cfg)

	ctx, cancel := context.WithTimeout(commandContext(cmd), cfg.Timeout)
	defer cancel()

	registry := prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		return err
	}

	creds, err := auth.NewCredentials(ctx, cfg, auth.Options{Logger: logger, Observer: collector})
	if err != nil {
		return err
	}
	if closer, ok := creds.(io.Closer); ok {
		defer closer.Close()
	}

	opts := []rpc.Option{
		rpc.WithLogger(logger),
		rpc.WithTraceIDs(),
		rpc.WithUnaryInterceptors(collector.UnaryInterceptor()),
	}
	if cfg.Secure {
		opts = append(opts, rpc.WithSecure())
	}
	if cfg.RootCAFile != "" {
		opts = append(opts, rpc.WithRootCAFile(cfg.RootCAFile))
	}
	opts = append(opts, extraChannelOptions...)

	ch, err := rpc.NewAuthenticatedChannel(cfg.Endpoint, ydbrpc.DiscoveryServiceName, creds, opts...)
	if err != nil {
		return err
	}
	defer ch.Close()

	client := rpc.NewClient(ch, newDiscoveryClient)
	executor := retry.NewExecutor(
		retry.NewGRPCErrorClassifier(),
		retry.NewExponentialBackoff(whoamiFlags.retries),
	).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Info("WhoAmI attempt %d failed: %v (retrying in %s)", attempt+1, err, delay)
	})

	// failed operation envelopes pessimize as well as transport errors
	whoAmI := rpc.Pessimizable(
		collector.Endpoint(&loggedEndpoint{target: cfg.Endpoint, logger: logger}),
		func(ctx context.Context) (*whoAmIResult, error) {
			return rpc.WithTimeout(ctx, whoamiFlags.callTimeout, func(ctx context.Context) (*whoAmIResult, error) {
				return client.WhoAmI(ctx, whoamiFlags.groups)
			})
		},
	)

	var result *whoAmIResult
	err = executor.Execute(ctx, func(ctx context.Context) error {
		r, err := whoAmI(ctx)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	if whoamiFlags.metrics {
		dumpMetrics(cmd.ErrOrStderr(), registry)
	}
	if err != nil {
		return fmt.Errorf("WhoAmI failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.User)
	if whoamiFlags.groups {
		for _, g := range result.Groups {
			fmt.Fprintf(out, "  %s\n", g)
		}
	}
	return nil
}

// loggedEndpoint stands in for a connection pool: the CLI talks to one endpoint
// and can only report that it should be avoided.
type loggedEndpoint struct {
	target string
	logger ydbrpc.Logger
}

func (e *loggedEndpoint) Pessimize() {
	e.logger.Info("Endpoint %s reported unhealthy", e.target)
}

// dumpMetrics prints counters and histogram count/sum as name{labels} value, sorted.
func dumpMetrics(w io.Writer, g prometheus.Gatherer) {
	families, err := g.Gather()
	if err != nil {
		fmt.Fprintf(w, "metrics unavailable: %v\n", err)
		return
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for i, lp := range m.GetLabel() {
				if i > 0 {
					labels += ","
				}
				labels += fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), labels, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s_count{%s} %d", mf.GetName(), labels, h.GetSampleCount()))
				lines = append(lines, fmt.Sprintf("%s_sum{%s} %g", mf.GetName(), labels, h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

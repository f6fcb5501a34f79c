package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vvka-141/ydbrpc/internal/logging"
	"github.com/vvka-141/ydbrpc/internal/retry"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

var errTokenAbsent = errors.New("ambient token not yet available")

// AmbientOptions tunes AmbientCredentials. Zero values take the documented defaults.
type AmbientOptions struct {
	// MaxAttempts is the number of extra reads after the first one (default 5)
	MaxAttempts int

	// RetryInterval is the pause before every extra read (default 2s)
	RetryInterval time.Duration

	Logger ydbrpc.Logger
}

// AmbientCredentials reads tokens from the hosting environment.
type AmbientCredentials struct {
	provider ydbrpc.AmbientTokenProvider
	database string
	opts     AmbientOptions
	executor *retry.Executor
}

// NewAmbientCredentials wraps provider.
func NewAmbientCredentials(provider ydbrpc.AmbientTokenProvider, database string, opts AmbientOptions) (*AmbientCredentials, error) {
	if provider == nil {
		return nil, fmt.Errorf("ambient token provider is required: %w", ydbrpc.ErrInvalidConfig)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = ydbrpc.DefaultAmbientMaxAttempts
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = ydbrpc.DefaultAmbientRetryInterval
	}
	opts.Logger = logging.OrNull(opts.Logger)

	executor := retry.NewExecutor(
		retry.ClassifierFunc(func(err error) bool { return errors.Is(err, errTokenAbsent) }),
		retry.NewFixedBackoff(opts.MaxAttempts, opts.RetryInterval),
	).WithOnRetry(func(attempt int, _ error, delay time.Duration) {
		opts.Logger.Verbose("Ambient token not available, retry %d/%d in %s", attempt+1, opts.MaxAttempts, delay)
	})

	return &AmbientCredentials{
		provider: provider,
		database: database,
		opts:     opts,
		executor: executor,
	}, nil
}

// AuthMetadata returns metadata built from the provider's current token.
//
// When the provider has no token, it is initialized once if it supports that
// and then polled up to MaxAttempts more times, RetryInterval apart.
func (c *AmbientCredentials) AuthMetadata(ctx context.Context) (ydbrpc.AuthMetadata, error) {
	var token string
	initialized := false

	err := c.executor.Execute(ctx, func(ctx context.Context) error {
		t, ok := c.provider.CurrentToken()
		if (!ok || t == "") && !initialized && c.provider.CanInitialize() {
			initialized = true
			if err := c.provider.Initialize(ctx); err != nil {
				return fmt.Errorf("failed to initialize ambient token provider: %w", err)
			}
			t, ok = c.provider.CurrentToken()
		}
		initialized = true
		if !ok || t == "" {
			return errTokenAbsent
		}
		token = t
		return nil
	})

	switch {
	case err == nil:
		return ydbrpc.NewAuthMetadata(token, c.database), nil
	case errors.Is(err, errTokenAbsent):
		err = fmt.Errorf("failed to fetch access token via metadata service in %d tries: %w",
			c.opts.MaxAttempts, ydbrpc.ErrAmbientTokenUnavailable)
	}

	c.opts.Logger.Error("%v", err)
	return nil, err
}

func (c *AmbientCredentials) String() string {
	return "AmbientCredentials"
}

package ambient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vvka-141/ydbrpc/internal/logging"
	"github.com/vvka-141/ydbrpc/internal/retry"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

const (
	// defaultRefreshMargin is how long before expiry a background refresh starts.
	defaultRefreshMargin = time.Minute

	// defaultRefreshRetries bounds background attempts per refresh cycle.
	defaultRefreshRetries = 3

	// defaultUnknownLifetime schedules refreshes when a token has no expiry.
	defaultUnknownLifetime = 10 * time.Minute
)

// RefreshObserver is notified after every fetch.
type RefreshObserver interface {
	ObserveRefresh(strategy string, duration time.Duration, err error)
}

// Options tunes a CachedProvider.
type Options struct {
	// RefreshMargin is subtracted from the expiry to schedule background refreshes
	RefreshMargin time.Duration

	// Backoff drives retries of failed background refreshes
	Backoff ydbrpc.BackoffStrategy

	Logger   ydbrpc.Logger
	Observer RefreshObserver

	// Now replaces the clock in tests
	Now func() time.Time
}

// CachedProvider adapts a TokenFetcher to ydbrpc.AmbientTokenProvider.
type CachedProvider struct {
	fetcher TokenFetcher
	opts    Options

	mu        sync.RWMutex
	token     string
	expiresOn time.Time

	fetches    singleflight.Group
	background sync.Once
}

// NewCachedProvider creates an empty provider. No fetch happens until
// Initialize or StartBackgroundRefresh.
func NewCachedProvider(fetcher TokenFetcher, opts Options) *CachedProvider {
	if opts.RefreshMargin <= 0 {
		opts.RefreshMargin = defaultRefreshMargin
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.NewExponentialBackoff(defaultRefreshRetries, retry.WithInitialDelay(time.Second))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Logger = logging.OrNull(opts.Logger)
	return &CachedProvider{fetcher: fetcher, opts: opts}
}

// CurrentToken returns the cached token unless it is missing or expired.
func (p *CachedProvider) CurrentToken() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.token == "" {
		return "", false
	}
	if !p.expiresOn.IsZero() && !p.opts.Now().Before(p.expiresOn) {
		return "", false
	}
	return p.token, true
}

// CanInitialize is always true: Initialize performs a blocking fetch.
func (p *CachedProvider) CanInitialize() bool {
	return true
}

// Initialize fetches a token once. Concurrent callers, including the
// background refresher, share the fetch.
func (p *CachedProvider) Initialize(ctx context.Context) error {
	return p.fetchShared(ctx)
}

// fetchShared joins the in-flight fetch, if any. Each caller still honors
// its own context while waiting.
func (p *CachedProvider) fetchShared(ctx context.Context) error {
	ch := p.fetches.DoChan("fetch", func() (any, error) {
		return nil, p.fetch(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *CachedProvider) fetch(ctx context.Context) error {
	start := p.opts.Now()
	token, expiresOn, err := p.fetcher.GetToken(ctx)
	if err == nil && token == "" {
		err = fmt.Errorf("%s returned an empty token", p.fetcher)
	}
	if p.opts.Observer != nil {
		p.opts.Observer.ObserveRefresh(p.fetcher.String(), p.opts.Now().Sub(start), err)
	}
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.token = token
	p.expiresOn = expiresOn
	p.mu.Unlock()

	p.opts.Logger.Verbose("Ambient token fetched from %s", p.fetcher)
	return nil
}

// StartBackgroundRefresh keeps the token fresh until ctx ends. Only the
// first call starts a refresher.
func (p *CachedProvider) StartBackgroundRefresh(ctx context.Context) {
	p.background.Do(func() {
		go p.refreshLoop(ctx)
	})
}

func (p *CachedProvider) refreshLoop(ctx context.Context) {
	executor := retry.NewExecutor(retry.ClassifierFunc(func(err error) bool {
		return ctx.Err() == nil
	}), p.opts.Backoff).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		p.opts.Logger.Verbose("Ambient token refresh from %s failed, retry %d in %s: %v", p.fetcher, attempt+1, delay, err)
	})

	wait := p.nextRefresh()
	for {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := executor.Execute(ctx, p.fetchShared); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.opts.Logger.Error("Ambient token refresh from %s failed: %v", p.fetcher, err)
			// the current token, if any, stays in place until it expires
			wait = p.opts.RefreshMargin
			continue
		}
		wait = p.nextRefresh()
	}
}

// nextRefresh returns the wait before the next background fetch.
func (p *CachedProvider) nextRefresh() time.Duration {
	p.mu.RLock()
	token, expiresOn := p.token, p.expiresOn
	p.mu.RUnlock()

	if token == "" {
		return 0
	}
	if expiresOn.IsZero() {
		return defaultUnknownLifetime
	}
	wait := expiresOn.Sub(p.opts.Now()) - p.opts.RefreshMargin
	if wait < 0 {
		return 0
	}
	return wait
}

func (p *CachedProvider) String() string {
	return fmt.Sprintf("CachedProvider(%s)", p.fetcher)
}

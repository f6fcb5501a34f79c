package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/vvka-141/ydbrpc/internal/logging"
	"github.com/vvka-141/ydbrpc/internal/rpc"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

const iamStrategyName = "iam"

// TokenExchanger trades a signed assertion for an IAM token.
type TokenExchanger interface {
	Exchange(ctx context.Context, assertion string) (string, error)
}

// GRPCExchanger calls the IAM token service over an unauthenticated channel.
type GRPCExchanger struct {
	channel *rpc.Channel
	logger  ydbrpc.Logger
}

// NewGRPCExchanger dials the token service at endpoint. TLS is used unless
// the endpoint carries an explicit grpc:// scheme.
func NewGRPCExchanger(endpoint string, logger ydbrpc.Logger, opts ...rpc.Option) (*GRPCExchanger, error) {
	if endpoint == "" {
		endpoint = ydbrpc.DefaultIAMEndpoint
	}
	if !strings.HasPrefix(endpoint, "grpc://") {
		opts = append([]rpc.Option{rpc.WithSecure()}, opts...)
	}
	opts = append(opts, rpc.WithLogger(logger))

	ch, err := rpc.NewChannel(endpoint, ydbrpc.IAMTokenServiceName, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create IAM token channel: %w", err)
	}
	return &GRPCExchanger{channel: ch, logger: logging.OrNull(logger)}, nil
}

// Exchange calls IamTokenService/Create.
func (e *GRPCExchanger) Exchange(ctx context.Context, assertion string) (string, error) {
	raw, err := e.channel.Invoke(ctx, "Create", encodeCreateTokenRequest(assertion))
	if err != nil {
		return "", err
	}
	token, expiresAt, err := decodeCreateTokenResponse(raw)
	if err != nil {
		return "", err
	}
	if !expiresAt.IsZero() {
		e.logger.Verbose("IAM token issued, server expiry %s", expiresAt.Format(time.RFC3339))
	}
	return token, nil
}

// Close releases the token service connection.
func (e *GRPCExchanger) Close() error {
	return e.channel.Close()
}

// IAMOptions tunes IAMCredentials. Zero values take the documented defaults.
type IAMOptions struct {
	// AssertionValidity is the lifetime written into signed assertions (default 1h)
	AssertionValidity time.Duration

	// TokenFreshness is how long an exchanged token is reused (default 2m)
	TokenFreshness time.Duration

	// ExchangeTimeout bounds one exchange call (default 10s)
	ExchangeTimeout time.Duration

	// Audience identifies the token service in assertions
	Audience string

	Logger   ydbrpc.Logger
	Observer RefreshObserver

	// Now replaces the clock in tests
	Now func() time.Time
}

func (o IAMOptions) withDefaults() IAMOptions {
	if o.AssertionValidity <= 0 {
		o.AssertionValidity = ydbrpc.DefaultAssertionValidity
	}
	if o.TokenFreshness <= 0 {
		o.TokenFreshness = ydbrpc.DefaultTokenFreshness
	}
	if o.ExchangeTimeout <= 0 {
		o.ExchangeTimeout = ydbrpc.DefaultTokenExchangeTimeout
	}
	if o.Audience == "" {
		o.Audience = ydbrpc.DefaultIAMAudience
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.Logger = logging.OrNull(o.Logger)
	o.Observer = observerOrNop(o.Observer)
	return o
}

// ServiceAccount identifies the signer of assertions.
type ServiceAccount struct {
	ID          string
	AccessKeyID string
	PrivateKey  *rsa.PrivateKey
}

// cachedToken is replaced wholesale on every successful refresh.
type cachedToken struct {
	value    string
	issuedAt time.Time
}

// IAMCredentials exchanges service-account assertions for IAM tokens.
//
// A token is reused for TokenFreshness after it was received. Concurrent
// callers that find it stale share a single in-flight exchange. A failed
// exchange leaves the previous token in place.
type IAMCredentials struct {
	account   ServiceAccount
	database  string
	exchanger TokenExchanger
	opts      IAMOptions

	mu    sync.Mutex
	token cachedToken

	refreshes singleflight.Group
}

// NewIAMCredentials creates an IAM strategy for database.
func NewIAMCredentials(account ServiceAccount, database string, exchanger TokenExchanger, opts IAMOptions) (*IAMCredentials, error) {
	if account.ID == "" || account.AccessKeyID == "" || account.PrivateKey == nil {
		return nil, fmt.Errorf("service account id, access key id and private key are required: %w", ydbrpc.ErrInvalidConfig)
	}
	if exchanger == nil {
		return nil, fmt.Errorf("token exchanger is required: %w", ydbrpc.ErrInvalidConfig)
	}
	return &IAMCredentials{
		account:   account,
		database:  database,
		exchanger: exchanger,
		opts:      opts.withDefaults(),
	}, nil
}

// AuthMetadata refreshes the token when stale and returns call metadata.
func (c *IAMCredentials) AuthMetadata(ctx context.Context) (ydbrpc.AuthMetadata, error) {
	if c.expired() {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	token := c.token.value
	c.mu.Unlock()

	return ydbrpc.NewAuthMetadata(token, c.database), nil
}

func (c *IAMCredentials) expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token.value == "" || c.opts.Now().Sub(c.token.issuedAt) > c.opts.TokenFreshness
}

// refresh joins the in-flight exchange, if any. Each caller still honors its
// own context while waiting.
func (c *IAMCredentials) refresh(ctx context.Context) error {
	ch := c.refreshes.DoChan("token", func() (any, error) {
		// the leader's cancellation must not fail callers sharing this exchange
		return nil, c.updateToken(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *IAMCredentials) updateToken(ctx context.Context) error {
	start := c.opts.Now()

	token, err := c.exchange(ctx)
	c.opts.Observer.ObserveRefresh(iamStrategyName, c.opts.Now().Sub(start), err)
	if err != nil {
		c.opts.Logger.Error("IAM token refresh for service account %s failed: %v", c.account.ID, err)
		return err
	}

	c.mu.Lock()
	c.token = cachedToken{value: token, issuedAt: c.opts.Now()}
	c.mu.Unlock()

	c.opts.Logger.Verbose("IAM token refreshed for service account %s", c.account.ID)
	return nil
}

func (c *IAMCredentials) exchange(ctx context.Context) (string, error) {
	assertion, err := c.signAssertion(c.opts.Now())
	if err != nil {
		return "", err
	}

	token, err := rpc.WithTimeout(ctx, c.opts.ExchangeTimeout, func(ctx context.Context) (string, error) {
		return c.exchanger.Exchange(ctx, assertion)
	})
	if err != nil {
		return "", fmt.Errorf("IAM token exchange failed: %w", err)
	}
	if token == "" {
		return "", ydbrpc.ErrEmptyToken
	}
	return token, nil
}

func (c *IAMCredentials) signAssertion(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    c.account.ID,
		Audience:  jwt.ClaimStrings{c.opts.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.opts.AssertionValidity)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodPS256, claims)
	token.Header["kid"] = c.account.AccessKeyID

	signed, err := token.SignedString(c.account.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign service account assertion: %w", err)
	}
	return signed, nil
}

// Close releases the exchanger when it holds a connection.
func (c *IAMCredentials) Close() error {
	if closer, ok := c.exchanger.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func (c *IAMCredentials) String() string {
	return fmt.Sprintf("IAMCredentials(service_account=%s, key=%s)", c.account.ID, c.account.AccessKeyID)
}

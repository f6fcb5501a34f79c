package rpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vvka-141/ydbrpc/internal/logging"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

const (
	schemeInsecure = "grpc://"
	schemeSecure   = "grpcs://"
)

// ParseEndpoint strips an optional grpc:// or grpcs:// scheme.
// The second result reports whether the scheme requested TLS.
func ParseEndpoint(endpoint string) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, schemeSecure):
		return strings.TrimPrefix(endpoint, schemeSecure), true
	case strings.HasPrefix(endpoint, schemeInsecure):
		return strings.TrimPrefix(endpoint, schemeInsecure), false
	}
	return endpoint, false
}

type channelOptions struct {
	secure       bool
	tlsConfig    *tls.Config
	rootCAFile   string
	dialOptions  []grpc.DialOption
	interceptors []grpc.UnaryClientInterceptor
	logger       ydbrpc.Logger

	// authenticated channels only
	credentials  ydbrpc.Credentials
	staticHeader ydbrpc.AuthMetadata
	traceIDs     bool
}

// Option configures a Channel.
type Option func(*channelOptions)

// WithSecure enables TLS with the system root certificates.
func WithSecure() Option {
	return func(o *channelOptions) {
		o.secure = true
	}
}

// WithTLSConfig enables TLS with the given configuration.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *channelOptions) {
		o.secure = true
		o.tlsConfig = cfg
	}
}

// WithRootCAFile enables TLS trusting the PEM certificates in path.
func WithRootCAFile(path string) Option {
	return func(o *channelOptions) {
		if path == "" {
			return
		}
		o.secure = true
		o.rootCAFile = path
	}
}

// WithDialOptions appends raw gRPC dial options.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *channelOptions) {
		o.dialOptions = append(o.dialOptions, opts...)
	}
}

// WithUnaryInterceptors installs interceptors that run before credentials are attached.
func WithUnaryInterceptors(interceptors ...grpc.UnaryClientInterceptor) Option {
	return func(o *channelOptions) {
		o.interceptors = append(o.interceptors, interceptors...)
	}
}

// WithLogger sets the channel logger.
func WithLogger(l ydbrpc.Logger) Option {
	return func(o *channelOptions) {
		o.logger = l
	}
}

// Channel issues raw unary calls to one service over one connection.
type Channel struct {
	service string
	target  string
	conn    *grpc.ClientConn
	logger  ydbrpc.Logger
}

// NewChannel creates a channel that attaches no credentials.
// The connection is established lazily on the first call.
func NewChannel(endpoint, service string, opts ...Option) (*Channel, error) {
	o := &channelOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return newChannel(endpoint, service, o)
}

func newChannel(endpoint, service string, o *channelOptions) (*Channel, error) {
	if service == "" {
		return nil, fmt.Errorf("service name is required: %w", ydbrpc.ErrInvalidConfig)
	}
	target, secure := ParseEndpoint(endpoint)
	if target == "" {
		return nil, fmt.Errorf("endpoint is required: %w", ydbrpc.ErrInvalidConfig)
	}
	logger := logging.OrNull(o.logger)

	transport, err := transportCredentials(secure || o.secure, o)
	if err != nil {
		return nil, err
	}

	interceptors := append([]grpc.UnaryClientInterceptor{}, o.interceptors...)
	if o.credentials != nil {
		interceptors = append(interceptors, AuthInterceptor(o.credentials, o.staticHeader, o.traceIDs))
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(transport),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	}
	if len(interceptors) > 0 {
		dialOpts = append(dialOpts, grpc.WithChainUnaryInterceptor(interceptors...))
	}
	dialOpts = append(dialOpts, o.dialOptions...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", target, err)
	}

	logger.Verbose("Channel to %s for %s created (tls=%v, authenticated=%v)",
		target, service, secure || o.secure, o.credentials != nil)

	return &Channel{service: service, target: target, conn: conn, logger: logger}, nil
}

func transportCredentials(secure bool, o *channelOptions) (credentials.TransportCredentials, error) {
	if !secure {
		return insecure.NewCredentials(), nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if o.tlsConfig != nil {
		cfg = o.tlsConfig.Clone()
	}
	if o.rootCAFile != "" {
		pem, err := os.ReadFile(o.rootCAFile)
		if err != nil {
			return nil, fmt.Errorf("read root CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s: %w", o.rootCAFile, ydbrpc.ErrInvalidConfig)
		}
		cfg.RootCAs = pool
	}
	return credentials.NewTLS(cfg), nil
}

// Service returns the fully qualified service name.
func (c *Channel) Service() string {
	return c.service
}

// Target returns the dialed address without scheme.
func (c *Channel) Target() string {
	return c.target
}

// FullMethod returns the gRPC path of method on this channel's service.
func (c *Channel) FullMethod(method ydbrpc.Method) string {
	return "/" + c.service + "/" + string(method)
}

// Invoke performs one unary call with a serialized request and returns the
// serialized response. It satisfies ydbrpc.UnaryInvoker.
func (c *Channel) Invoke(ctx context.Context, method ydbrpc.Method, request []byte) ([]byte, error) {
	var response []byte
	if err := c.conn.Invoke(ctx, c.FullMethod(method), request, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// Close releases the underlying connection.
func (c *Channel) Close() error {
	return c.conn.Close()
}

// NewClient builds a typed client from a channel. factory is called exactly once.
func NewClient[T any](c *Channel, factory ydbrpc.StubFactory[T]) T {
	return factory(c.Invoke)
}

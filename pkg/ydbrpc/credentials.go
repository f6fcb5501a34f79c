package ydbrpc

import "context"

// Credentials produces the metadata attached to every authenticated call.
// Implementations must be safe for concurrent and repeated use.
type Credentials interface {
	AuthMetadata(ctx context.Context) (AuthMetadata, error)
}

// Initializer is the optional second phase of an ambient token provider.
type Initializer interface {
	// Initialize performs the provider's one-time token acquisition.
	Initialize(ctx context.Context) error
}

// AmbientTokenProvider exposes a token obtained from the hosting environment.
//
// CurrentToken never blocks. When it reports no token and CanInitialize is
// true, callers run Initialize once and read again.
type AmbientTokenProvider interface {
	Initializer

	CurrentToken() (string, bool)
	CanInitialize() bool
}

// Endpoint receives health signals about the node a call was routed to.
type Endpoint interface {
	Pessimize()
}

// Method is the unqualified name of a remote procedure within a service.
type Method string

// UnaryInvoker performs one raw call. Request and response are serialized messages.
type UnaryInvoker func(ctx context.Context, method Method, request []byte) ([]byte, error)

// StubFactory turns an invoker into a typed client. It is called once per channel.
type StubFactory[T any] func(invoke UnaryInvoker) T

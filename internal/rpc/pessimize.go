package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// IsNotFound reports whether err means the requested object does not exist,
// either as an operation status or as a gRPC status.
func IsNotFound(err error) bool {
	if errors.Is(err, ydbrpc.ErrNotFound) {
		return true
	}
	return status.Code(err) == codes.NotFound
}

// ShouldPessimize reports whether err says something about endpoint health.
func ShouldPessimize(err error) bool {
	return err != nil && !IsNotFound(err)
}

// Pessimizable wraps fn so that every failure except not-found marks endpoint
// as pessimized. The error is returned unchanged.
func Pessimizable[T any](endpoint ydbrpc.Endpoint, fn func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if ShouldPessimize(err) {
			endpoint.Pessimize()
		}
		return v, err
	}
}

// PessimizeInterceptor is the interceptor form of Pessimizable for channels
// pinned to a single endpoint.
func PessimizeInterceptor(endpoint ydbrpc.Endpoint) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		err := invoker(ctx, method, req, reply, cc, opts...)
		if ShouldPessimize(err) {
			endpoint.Pessimize()
		}
		return err
	}
}

package rpc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// WithStaticHeaders adds headers merged into every authenticated call.
// They never replace a non-empty credential header and empty values are dropped.
func WithStaticHeaders(headers ydbrpc.AuthMetadata) Option {
	return func(o *channelOptions) {
		o.staticHeader = append(o.staticHeader, headers...)
	}
}

// WithTraceIDs attaches a fresh x-ydb-trace-id to every authenticated call.
func WithTraceIDs() Option {
	return func(o *channelOptions) {
		o.traceIDs = true
	}
}

// NewAuthenticatedChannel creates a channel whose every call carries the
// metadata produced by creds, merged with the build-info header and any
// WithStaticHeaders values.
func NewAuthenticatedChannel(endpoint, service string, creds ydbrpc.Credentials, opts ...Option) (*Channel, error) {
	if creds == nil {
		return nil, fmt.Errorf("credentials are required: %w", ydbrpc.ErrInvalidConfig)
	}
	o := &channelOptions{
		staticHeader: ydbrpc.AuthMetadata{{Name: ydbrpc.HeaderBuildInfo, Value: ydbrpc.BuildInfo()}},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.credentials = creds
	// copy so later mutation of caller slices cannot reach the interceptor
	o.staticHeader = append(ydbrpc.AuthMetadata{}, o.staticHeader...)
	return newChannel(endpoint, service, o)
}

// AuthInterceptor fetches credential metadata once per call, merges the
// static headers and attaches the result as outgoing gRPC metadata.
// A credential failure fails the call without reaching the server.
func AuthInterceptor(creds ydbrpc.Credentials, static ydbrpc.AuthMetadata, traceIDs bool) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		md, err := creds.AuthMetadata(ctx)
		if err != nil {
			return fmt.Errorf("auth metadata for %s: %w", method, err)
		}
		md = md.Merge(static)
		if traceIDs {
			if v, _ := md.Get(ydbrpc.HeaderTraceID); v == "" {
				md = md.Set(ydbrpc.HeaderTraceID, uuid.NewString())
			}
		}
		return invoker(withOutgoingHeaders(ctx, md), method, req, reply, cc, opts...)
	}
}

// withOutgoingHeaders sets md over any outgoing metadata already in ctx, so a
// header the caller attached is replaced rather than sent twice.
func withOutgoingHeaders(ctx context.Context, md ydbrpc.AuthMetadata) context.Context {
	out, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		out = metadata.MD{}
	}
	for _, h := range md {
		out.Set(h.Name, h.Value)
	}
	return metadata.NewOutgoingContext(ctx, out)
}

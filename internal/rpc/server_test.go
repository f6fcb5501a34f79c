package rpc

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
)

// recordedCall is what the in-memory server saw for one request
type recordedCall struct {
	method   string
	metadata metadata.MD
	request  []byte
}

// fakeServer answers every method of every service through one handler
type fakeServer struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(method string, request []byte) ([]byte, error)
}

func (s *fakeServer) handle(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)
	md, _ := metadata.FromIncomingContext(stream.Context())

	var request []byte
	if err := stream.RecvMsg(&request); err != nil {
		return err
	}

	s.mu.Lock()
	s.calls = append(s.calls, recordedCall{method: method, metadata: md, request: request})
	s.mu.Unlock()

	response := request
	if s.respond != nil {
		var err error
		if response, err = s.respond(method, request); err != nil {
			return err
		}
	}
	return stream.SendMsg(response)
}

func (s *fakeServer) recorded() []recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedCall{}, s.calls...)
}

// startFakeServer serves s over bufconn and returns an option dialing it
func startFakeServer(t *testing.T, s *fakeServer) Option {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(rawCodec{}),
		grpc.UnknownServiceHandler(s.handle),
	)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
}

const bufTarget = "passthrough:///bufnet"

func newTestChannel(t *testing.T, s *fakeServer, service string, opts ...Option) *Channel {
	t.Helper()
	ch, err := NewChannel(bufTarget, service, append(opts, startFakeServer(t, s))...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

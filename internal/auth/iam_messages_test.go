package auth

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vvka-141/ydbrpc/internal/rpc"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

func encodeCreateTokenResponse(token string, expiresAt time.Time) []byte {
	b := protowire.AppendTag(nil, createTokenIAMTokenField, protowire.BytesType)
	b = protowire.AppendString(b, token)

	var ts []byte
	ts = protowire.AppendTag(ts, timestampSecondsField, protowire.VarintType)
	ts = protowire.AppendVarint(ts, uint64(expiresAt.Unix()))
	ts = protowire.AppendTag(ts, timestampNanosField, protowire.VarintType)
	ts = protowire.AppendVarint(ts, uint64(expiresAt.Nanosecond()))

	b = protowire.AppendTag(b, createTokenExpiresAtField, protowire.BytesType)
	return protowire.AppendBytes(b, ts)
}

func decodeCreateTokenRequest(b []byte) string {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ""
		}
		b = b[n:]
		if num == createTokenJWTField && typ == protowire.BytesType {
			v, _ := protowire.ConsumeString(b)
			return v
		}
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return ""
		}
		b = b[m:]
	}
	return ""
}

func TestCreateTokenResponse_Decode(t *testing.T) {
	expiresAt := time.Date(2026, 3, 1, 24, 0, 0, 500, time.UTC)

	token, got, err := decodeCreateTokenResponse(encodeCreateTokenResponse("t1.iam", expiresAt))

	require.NoError(t, err)
	assert.Equal(t, "t1.iam", token)
	assert.True(t, got.Equal(expiresAt))
}

func TestCreateTokenResponse_SkipsUnknownFields(t *testing.T) {
	b := protowire.AppendTag(nil, 7, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = append(b, encodeCreateTokenResponse("t1.iam", time.Unix(0, 0))...)

	token, _, err := decodeCreateTokenResponse(b)

	require.NoError(t, err)
	assert.Equal(t, "t1.iam", token)
}

func TestCreateTokenResponse_Truncated(t *testing.T) {
	b := encodeCreateTokenResponse("t1.iam", time.Unix(0, 0))

	_, _, err := decodeCreateTokenResponse(b[:3])

	assert.ErrorContains(t, err, "decode token response")
}

func TestCreateTokenRequest_Encode(t *testing.T) {
	assert.Equal(t, "header.claims.sig", decodeCreateTokenRequest(encodeCreateTokenRequest("header.claims.sig")))
}

// bytesCodec is the server-side counterpart of the client's pass-through codec
type bytesCodec struct{}

func (bytesCodec) Marshal(v any) ([]byte, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	return nil, errors.New("bytesCodec: unsupported type")
}

func (bytesCodec) Unmarshal(data []byte, v any) error {
	p, ok := v.(*[]byte)
	if !ok {
		return errors.New("bytesCodec: unsupported type")
	}
	*p = append((*p)[:0], data...)
	return nil
}

func (bytesCodec) Name() string { return "proto" }

// startTokenService serves a fake IamTokenService/Create and returns the
// exchanger options dialing it.
func startTokenService(t *testing.T, handle func(method, assertion string) ([]byte, error)) []rpc.Option {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(
		grpc.ForceServerCodec(bytesCodec{}),
		grpc.UnknownServiceHandler(func(_ any, stream grpc.ServerStream) error {
			method, _ := grpc.MethodFromServerStream(stream)
			var request []byte
			if err := stream.RecvMsg(&request); err != nil {
				return err
			}
			response, err := handle(method, decodeCreateTokenRequest(request))
			if err != nil {
				return err
			}
			return stream.SendMsg(response)
		}),
	)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return []rpc.Option{rpc.WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))}
}

func TestGRPCExchanger_Exchange(t *testing.T) {
	var gotMethod, gotAssertion string
	opts := startTokenService(t, func(method, assertion string) ([]byte, error) {
		gotMethod, gotAssertion = method, assertion
		return encodeCreateTokenResponse("t1.iam", time.Now().Add(12*time.Hour)), nil
	})

	exchanger, err := NewGRPCExchanger("grpc://passthrough:///bufnet", nil, opts...)
	require.NoError(t, err)
	defer exchanger.Close()

	token, err := exchanger.Exchange(context.Background(), "signed.jwt.value")

	require.NoError(t, err)
	assert.Equal(t, "t1.iam", token)
	assert.Equal(t, "/"+ydbrpc.IAMTokenServiceName+"/Create", gotMethod)
	assert.Equal(t, "signed.jwt.value", gotAssertion)
}

func TestGRPCExchanger_ServerError(t *testing.T) {
	opts := startTokenService(t, func(string, string) ([]byte, error) {
		return nil, status.Error(codes.Unauthenticated, "bad signature")
	})

	exchanger, err := NewGRPCExchanger("grpc://passthrough:///bufnet", nil, opts...)
	require.NoError(t, err)
	defer exchanger.Close()

	_, err = exchanger.Exchange(context.Background(), "signed.jwt.value")

	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestIAMCredentials_OverGRPC(t *testing.T) {
	opts := startTokenService(t, func(_, assertion string) ([]byte, error) {
		if assertion == "" {
			return nil, status.Error(codes.InvalidArgument, "jwt is required")
		}
		return encodeCreateTokenResponse("t1.iam", time.Now().Add(12*time.Hour)), nil
	})

	exchanger, err := NewGRPCExchanger("grpc://passthrough:///bufnet", nil, opts...)
	require.NoError(t, err)

	creds, err := NewIAMCredentials(testAccount(), "/local", exchanger, IAMOptions{})
	require.NoError(t, err)
	defer creds.Close()

	md, err := creds.AuthMetadata(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ydbrpc.NewAuthMetadata("t1.iam", "/local"), md)
}

package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// ClassifierFunc adapts a plain function to ydbrpc.ErrorClassifier.
type ClassifierFunc func(err error) bool

// IsTransient calls f(err).
func (f ClassifierFunc) IsTransient(err error) bool {
	return f(err)
}

// transientStatuses are operation statuses the server documents as safe to retry.
var transientStatuses = map[ydbrpc.StatusCode]bool{
	ydbrpc.StatusAborted:     true,
	ydbrpc.StatusUnavailable: true,
	ydbrpc.StatusOverloaded:  true,
	ydbrpc.StatusBadSession:  true,
	ydbrpc.StatusSessionBusy: true,
}

var transientCodes = map[codes.Code]bool{
	codes.Unavailable:       true,
	codes.ResourceExhausted: true,
	codes.Aborted:           true,
}

// GRPCErrorClassifier recognizes transient transport and operation failures.
type GRPCErrorClassifier struct{}

// NewGRPCErrorClassifier creates a new classifier.
func NewGRPCErrorClassifier() *GRPCErrorClassifier {
	return &GRPCErrorClassifier{}
}

// IsTransient reports whether err is worth another attempt.
// Raced deadlines are never retried: the caller's budget is already spent.
func (c *GRPCErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ydbrpc.ErrTimeoutExpired) {
		return false
	}

	if code, ok := ydbrpc.StatusOf(err); ok {
		return transientStatuses[code]
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		return transientCodes[st.Code()]
	}

	return c.isNetworkError(err)
}

func (c *GRPCErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ENETUNREACH) ||
			errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"unexpected eof",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

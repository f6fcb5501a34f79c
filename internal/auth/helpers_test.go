package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testKey = sync.OnceValue(func() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return key
})

func testKeyPEM(t *testing.T) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(testKey())
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func testAccount() ServiceAccount {
	return ServiceAccount{ID: "aje-sa", AccessKeyID: "ajk-key", PrivateKey: testKey()}
}

// fakeClock is advanced manually by tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockExchanger is a hand-written TokenExchanger for testing.
type MockExchanger struct {
	mu         sync.Mutex
	tokens     []string
	err        error
	block      chan struct{}
	assertions []string
	calls      atomic.Int32
}

func (m *MockExchanger) Exchange(ctx context.Context, assertion string) (string, error) {
	m.calls.Add(1)
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.assertions = append(m.assertions, assertion)
	if m.err != nil {
		return "", m.err
	}
	token := ""
	if len(m.tokens) > 0 {
		token = m.tokens[0]
		m.tokens = m.tokens[1:]
	}
	return token, nil
}

func (m *MockExchanger) lastAssertion() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.assertions) == 0 {
		return ""
	}
	return m.assertions[len(m.assertions)-1]
}

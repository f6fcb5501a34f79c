package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

func TestWithTimeout_OperationWins(t *testing.T) {
	got, err := WithTimeout(context.Background(), time.Second, func(context.Context) (string, error) {
		return "token", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "token", got)
}

func TestWithTimeout_OperationErrorWins(t *testing.T) {
	opErr := errors.New("exchange failed")

	_, err := WithTimeout(context.Background(), time.Second, func(context.Context) (int, error) {
		return 0, opErr
	})

	assert.Same(t, opErr, err)
	assert.NotErrorIs(t, err, ydbrpc.ErrTimeoutExpired)
}

func TestWithTimeout_DeadlineWins(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := WithTimeout(context.Background(), 20*time.Millisecond, func(context.Context) (int, error) {
		<-release
		return 1, nil
	})
	elapsed := time.Since(start)

	var timeoutErr *ydbrpc.TimeoutExpiredError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 20*time.Millisecond, timeoutErr.Timeout)
	assert.ErrorIs(t, err, ydbrpc.ErrTimeoutExpired)
	assert.Less(t, elapsed, time.Second)
}

func TestWithTimeout_CancelsOperationContext(t *testing.T) {
	observed := make(chan error, 1)

	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		observed <- ctx.Err()
		return 0, ctx.Err()
	})
	require.ErrorIs(t, err, ydbrpc.ErrTimeoutExpired)

	select {
	case cause := <-observed:
		assert.ErrorIs(t, cause, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("operation context was not canceled")
	}
}

func TestWithTimeout_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithTimeout(ctx, time.Minute, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
}

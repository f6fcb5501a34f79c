package rpc

import (
	"context"
	"time"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// WithTimeout races op against a timer of d.
//
// If op settles first its own result is returned. If the timer fires first the
// result is *ydbrpc.TimeoutExpiredError carrying d, and the context given to op
// is canceled; WithTimeout does not wait for op to return. The timer is stopped
// on every path.
func WithTimeout[T any](ctx context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		v, err := op(opCtx)
		done <- outcome{value: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case out := <-done:
		return out.value, out.err
	case <-timer.C:
		return zero, &ydbrpc.TimeoutExpiredError{Timeout: d}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

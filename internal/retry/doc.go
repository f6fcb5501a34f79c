// Package retry re-runs operations that fail with transient errors.
//
// An Executor combines an ErrorClassifier, which decides whether a failure is
// worth another attempt, with a BackoffStrategy, which decides how long to wait
// and how many retries are allowed.
//
// # Example Usage
//
//	executor := retry.NewExecutor(
//	    retry.NewGRPCErrorClassifier(),
//	    retry.NewExponentialBackoff(3),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    _, err := channel.Invoke(ctx, "WhoAmI", request)
//	    return err
//	})
//
// # Backoff Strategies
//
// ExponentialBackoff grows the delay geometrically up to a cap and applies
// jitter. FixedBackoff waits the same interval before every retry and is what
// ambient credential polling uses.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. WithOnRetry returns an
// independent copy.
package retry

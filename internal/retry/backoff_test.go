package retry

import (
	"testing"
	"time"
)

func TestFixedBackoff(t *testing.T) {
	strategy := NewFixedBackoff(5, 2*time.Second)

	for attempt := 0; attempt < 10; attempt++ {
		if d := strategy.NextDelay(attempt); d != 2*time.Second {
			t.Errorf("NextDelay(%d) = %v, want 2s", attempt, d)
		}
	}
	if strategy.MaxAttempts() != 5 {
		t.Errorf("Expected MaxAttempts=5, got %d", strategy.MaxAttempts())
	}
}

func TestExponentialBackoff_DefaultValues(t *testing.T) {
	strategy := NewExponentialBackoff(3)

	if strategy.InitialDelay() != 100*time.Millisecond {
		t.Errorf("Expected InitialDelay=100ms, got %v", strategy.InitialDelay())
	}
	if strategy.MaxDelay() != 30*time.Second {
		t.Errorf("Expected MaxDelay=30s, got %v", strategy.MaxDelay())
	}
	if strategy.MaxAttempts() != 3 {
		t.Errorf("Expected MaxAttempts=3, got %d", strategy.MaxAttempts())
	}
}

func TestExponentialBackoff_NextDelay_WithoutJitter(t *testing.T) {
	strategy := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2.0),
		WithMaxDelay(time.Second),
		WithJitter(0),
	)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{20, time.Second},
	}

	for _, tt := range tests {
		if got := strategy.NextDelay(tt.attempt); got != tt.want {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoff_NextDelay_DeterministicJitter(t *testing.T) {
	tests := []struct {
		random float64
		want   time.Duration
	}{
		{0.0, 90 * time.Millisecond},
		{0.5, 100 * time.Millisecond},
		{1.0, 110 * time.Millisecond},
	}

	for _, tt := range tests {
		random := tt.random
		strategy := NewExponentialBackoff(1,
			WithInitialDelay(100*time.Millisecond),
			WithJitter(0.1),
			WithJitterFunc(func() float64 { return random }),
		)
		if got := strategy.NextDelay(0); got != tt.want {
			t.Errorf("random=%v: NextDelay(0) = %v, want %v", tt.random, got, tt.want)
		}
	}
}

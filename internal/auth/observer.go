package auth

import "time"

// RefreshObserver is notified after every token refresh attempt.
type RefreshObserver interface {
	ObserveRefresh(strategy string, duration time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveRefresh(string, time.Duration, error) {}

func observerOrNop(o RefreshObserver) RefreshObserver {
	if o == nil {
		return nopObserver{}
	}
	return o
}

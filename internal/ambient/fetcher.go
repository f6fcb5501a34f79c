// Package ambient obtains tokens from the environment a process runs in
// and adapts them to the two-phase ydbrpc.AmbientTokenProvider contract.
//
// A TokenFetcher performs one blocking token acquisition. CachedProvider
// keeps the last fetched token, answers CurrentToken without blocking and
// fetches on Initialize. With background refresh enabled it re-fetches ahead
// of expiry so CurrentToken keeps returning a valid token.
package ambient

import (
	"context"
	"time"
)

// TokenFetcher acquires a token from an ambient source.
type TokenFetcher interface {
	// GetToken returns the token and its expiry. A zero expiry means unknown.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the source for logging. It must not include secrets.
	String() string
}

// Package auth implements the credential strategies that produce per-call
// metadata for authenticated channels.
//
//   - StaticCredentials: a fixed access token
//   - IAMCredentials: a service-account assertion signed with PS256 and
//     exchanged for a short-lived IAM token, cached and refreshed on demand
//   - AmbientCredentials: a token read from the hosting environment through a
//     ydbrpc.AmbientTokenProvider, polled with a bounded fixed-interval retry
//
// NewCredentials selects a strategy from a ydbrpc.ConnectionConfig.
package auth

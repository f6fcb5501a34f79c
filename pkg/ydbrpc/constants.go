package ydbrpc

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or credentials setup
	ExitConnectionError = 11 // Endpoint unreachable or call deadline exceeded
	ExitAuthError       = 12 // Credentials could not be obtained
	ExitOperationFailed = 13 // Remote operation returned a non-success status
)

// Metadata header names attached to every authenticated call.
const (
	HeaderAuthTicket = "x-ydb-auth-ticket"
	HeaderDatabase   = "x-ydb-database"
	HeaderBuildInfo  = "x-ydb-sdk-build-info"
	HeaderTraceID    = "x-ydb-trace-id"
)

const (
	// DefaultAssertionValidity is how long a signed service-account assertion stays valid.
	DefaultAssertionValidity = time.Hour

	// DefaultTokenFreshness is how long an exchanged IAM token is reused before the
	// next call triggers a refresh.
	DefaultTokenFreshness = 2 * time.Minute

	// DefaultTokenExchangeTimeout bounds a single assertion-for-token exchange call.
	DefaultTokenExchangeTimeout = 10 * time.Second

	// DefaultAmbientMaxAttempts is the number of extra reads of an ambient token
	// provider after the initial read (and optional initialization) came back empty.
	DefaultAmbientMaxAttempts = 5

	// DefaultAmbientRetryInterval is the fixed pause between ambient provider reads.
	DefaultAmbientRetryInterval = 2 * time.Second

	// DefaultCallTimeout is the CLI's per-command deadline.
	DefaultCallTimeout = 30 * time.Second
)

const (
	// DefaultIAMEndpoint is the token service host used to exchange assertions.
	DefaultIAMEndpoint = "iam.api.cloud.yandex.net:443"

	// DefaultIAMAudience identifies the token service inside signed assertions.
	DefaultIAMAudience = "https://iam.api.cloud.yandex.net/iam/v1/tokens"

	// IAMTokenServiceName is the fully qualified gRPC service exchanging assertions.
	IAMTokenServiceName = "yandex.cloud.iam.v1.IamTokenService"

	// DiscoveryServiceName is the fully qualified gRPC discovery service.
	DiscoveryServiceName = "Ydb.Discovery.V1.DiscoveryService"
)

// ClientName prefixes the build-info header value.
const ClientName = "ydbrpc"

// Version is the client version reported in the build-info header.
// Overridden at build time via ldflags.
var Version = "0.1.0"

// BuildInfo returns the value of the build-info header.
func BuildInfo() string {
	return ClientName + "/" + Version
}

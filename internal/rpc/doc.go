// Package rpc provides the call channels that every database service stub
// is built on.
//
// A Channel binds one gRPC service name to a client connection and exposes a
// single raw invoker. Typed stubs are built from that invoker through a
// ydbrpc.StubFactory, so every method of every stub passes through the same
// interceptor chain. NewAuthenticatedChannel installs the credential
// interceptor on that chain; NewChannel does not.
//
// The package also provides WithTimeout, which races an operation against a
// deadline, and the pessimization hooks that report failing endpoints.
package rpc

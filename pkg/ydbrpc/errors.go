package ydbrpc

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	payload, err := operation.Payload(resp)
//	if errors.Is(err, ydbrpc.ErrMissingValue) {
//	    // Operation succeeded but carried no result
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrTimeoutExpired indicates a raced operation did not settle before its deadline.
	ErrTimeoutExpired = errors.New("timeout expired")

	// ErrMissingOperation indicates a response carried no operation envelope.
	ErrMissingOperation = errors.New("no operation in response")

	// ErrMissingValue indicates an operation succeeded but carried no result value.
	ErrMissingValue = errors.New("missing operation result value")

	// ErrNotFound indicates application-level absence of the requested object.
	ErrNotFound = errors.New("not found")

	// ErrOperationFailed is matched by every StatusError.
	ErrOperationFailed = errors.New("operation failed")

	// ErrEmptyToken indicates the token exchange answered without a token.
	ErrEmptyToken = errors.New("received empty token from IAM")

	// ErrAmbientTokenUnavailable indicates the ambient provider never produced a token.
	ErrAmbientTokenUnavailable = errors.New("ambient token unavailable")
)

// TimeoutExpiredError is returned when a deadline wins a race against an operation.
// It matches ErrTimeoutExpired with errors.Is.
type TimeoutExpiredError struct {
	Timeout time.Duration
}

func (e *TimeoutExpiredError) Error() string {
	return fmt.Sprintf("timeout of %dms has expired", e.Timeout.Milliseconds())
}

// Is reports whether target is ErrTimeoutExpired.
func (e *TimeoutExpiredError) Is(target error) bool {
	return target == ErrTimeoutExpired
}

// StatusError is a non-success operation status returned by the remote API.
// It matches ErrOperationFailed, and ErrNotFound when Code is StatusNotFound.
type StatusError struct {
	Code   StatusCode
	Issues []Issue
}

func (e *StatusError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "operation failed with status %s (%d)", e.Code, int32(e.Code))
	if msgs := flattenIssues(e.Issues); len(msgs) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(msgs, "; "))
	}
	return b.String()
}

// Is supports errors.Is matching against the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrOperationFailed:
		return true
	case ErrNotFound:
		return e.Code == StatusNotFound
	}
	return false
}

func flattenIssues(issues []Issue) []string {
	var out []string
	for _, issue := range issues {
		if issue.Message != "" {
			out = append(out, issue.Message)
		}
		out = append(out, flattenIssues(issue.Issues)...)
	}
	return out
}

// StatusOf extracts the operation status from err.
// The second result is false when err carries no StatusError.
func StatusOf(err error) (StatusCode, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, true
	}
	return StatusUnspecified, false
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrEmptyToken),
		errors.Is(err, ErrAmbientTokenUnavailable):
		return ExitAuthError
	case errors.Is(err, ErrTimeoutExpired):
		return ExitConnectionError
	case errors.Is(err, ErrOperationFailed),
		errors.Is(err, ErrMissingOperation):
		return ExitOperationFailed
	}

	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "Unavailable") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

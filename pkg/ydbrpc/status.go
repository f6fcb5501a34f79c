package ydbrpc

import "fmt"

// StatusCode is the remote API's operation status taxonomy.
type StatusCode int32

const (
	StatusUnspecified        StatusCode = 0
	StatusSuccess            StatusCode = 400000
	StatusBadRequest         StatusCode = 400010
	StatusUnauthorized       StatusCode = 400020
	StatusInternalError      StatusCode = 400030
	StatusAborted            StatusCode = 400040
	StatusUnavailable        StatusCode = 400050
	StatusOverloaded         StatusCode = 400060
	StatusSchemeError        StatusCode = 400070
	StatusGenericError       StatusCode = 400080
	StatusTimeout            StatusCode = 400090
	StatusBadSession         StatusCode = 400100
	StatusPreconditionFailed StatusCode = 400120
	StatusAlreadyExists      StatusCode = 400130
	StatusNotFound           StatusCode = 400140
	StatusSessionExpired     StatusCode = 400150
	StatusCancelled          StatusCode = 400160
	StatusUndetermined       StatusCode = 400170
	StatusUnsupported        StatusCode = 400180
	StatusSessionBusy        StatusCode = 400190
)

var statusNames = map[StatusCode]string{
	StatusUnspecified:        "STATUS_CODE_UNSPECIFIED",
	StatusSuccess:            "SUCCESS",
	StatusBadRequest:         "BAD_REQUEST",
	StatusUnauthorized:       "UNAUTHORIZED",
	StatusInternalError:      "INTERNAL_ERROR",
	StatusAborted:            "ABORTED",
	StatusUnavailable:        "UNAVAILABLE",
	StatusOverloaded:         "OVERLOADED",
	StatusSchemeError:        "SCHEME_ERROR",
	StatusGenericError:       "GENERIC_ERROR",
	StatusTimeout:            "TIMEOUT",
	StatusBadSession:         "BAD_SESSION",
	StatusPreconditionFailed: "PRECONDITION_FAILED",
	StatusAlreadyExists:      "ALREADY_EXISTS",
	StatusNotFound:           "NOT_FOUND",
	StatusSessionExpired:     "SESSION_EXPIRED",
	StatusCancelled:          "CANCELLED",
	StatusUndetermined:       "UNDETERMINED",
	StatusUnsupported:        "UNSUPPORTED",
	StatusSessionBusy:        "SESSION_BUSY",
}

// String returns the wire name of the status code.
func (c StatusCode) String() string {
	if name, ok := statusNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int32(c))
}

// IsValid reports whether the code belongs to the known taxonomy.
func (c StatusCode) IsValid() bool {
	_, ok := statusNames[c]
	return ok
}

// Issue is a single diagnostic message attached to a failed operation.
type Issue struct {
	Code     uint32
	Severity uint32
	Message  string
	Issues   []Issue
}

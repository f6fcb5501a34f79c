package operation

import (
	"errors"
	"slices"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// Payload returns the packed result of a successful operation.
//
// A response without an operation yields ErrMissingOperation, a non-success
// status yields *ydbrpc.StatusError carrying the server's issues, and a
// successful operation without a result value yields ErrMissingValue.
func Payload(resp *Response) ([]byte, error) {
	if resp == nil || resp.Operation == nil {
		return nil, ydbrpc.ErrMissingOperation
	}
	op := resp.Operation
	if op.Status != ydbrpc.StatusSuccess {
		return nil, &ydbrpc.StatusError{Code: op.Status, Issues: op.Issues}
	}
	if op.Result == nil || op.Result.Value == nil {
		return nil, ydbrpc.ErrMissingValue
	}
	return op.Result.Value, nil
}

// EnsureSucceeded checks an operation whose result the caller does not need.
// A missing result value is not an error, nor is a status listed in suppressed.
// Every other failure from Payload is returned unchanged.
func EnsureSucceeded(resp *Response, suppressed ...ydbrpc.StatusCode) error {
	_, err := Payload(resp)
	if err == nil || errors.Is(err, ydbrpc.ErrMissingValue) {
		return nil
	}
	var statusErr *ydbrpc.StatusError
	if errors.As(err, &statusErr) && slices.Contains(suppressed, statusErr.Code) {
		return nil
	}
	return err
}

// Unwrap decodes raw and returns its payload.
func Unwrap(raw []byte) ([]byte, error) {
	resp, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Payload(resp)
}

// Package operation unwraps the operation envelope that wraps every
// database API response.
//
// A response message carries a single Operation in field 1. The operation
// reports a status, optional diagnostic issues and, on success, a packed
// result. Payload returns the result bytes or a typed error; EnsureSucceeded
// is for calls whose result is irrelevant.
//
//	resp, err := operation.Decode(raw)
//	if err != nil {
//	    return err
//	}
//	value, err := operation.Payload(resp)
package operation

package operation

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// Field numbers of the public API messages.
const (
	responseOperationField = 1

	operationIDField     = 1
	operationReadyField  = 2
	operationStatusField = 3
	operationIssuesField = 4
	operationResultField = 5

	issueMessageField  = 2
	issueCodeField     = 4
	issueSeverityField = 5
	issueIssuesField   = 6

	anyTypeURLField = 1
	anyValueField   = 2
)

// Response is any API response: only the operation field is interpreted.
type Response struct {
	Operation *Operation
}

// Operation describes the outcome of a remote call.
type Operation struct {
	ID     string
	Ready  bool
	Status ydbrpc.StatusCode
	Issues []ydbrpc.Issue
	Result *Any
}

// Any is a packed message and the URL naming its type.
// Value is nil when the field was absent on the wire.
type Any struct {
	TypeURL string
	Value   []byte
}

// Decode parses a serialized response. Unknown fields are skipped.
func Decode(raw []byte) (*Response, error) {
	resp := &Response{}
	err := walk(raw, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		if num != responseOperationField || typ != protowire.BytesType {
			return nil
		}
		op, err := decodeOperation(v)
		if err != nil {
			return err
		}
		resp.Operation = op
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode operation envelope: %w", err)
	}
	return resp, nil
}

func decodeOperation(b []byte) (*Operation, error) {
	op := &Operation{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch {
		case num == operationIDField && typ == protowire.BytesType:
			op.ID = string(v)
		case num == operationReadyField && typ == protowire.VarintType:
			op.Ready = protowire.DecodeBool(n)
		case num == operationStatusField && typ == protowire.VarintType:
			op.Status = ydbrpc.StatusCode(int32(n))
		case num == operationIssuesField && typ == protowire.BytesType:
			issue, err := decodeIssue(v)
			if err != nil {
				return err
			}
			op.Issues = append(op.Issues, issue)
		case num == operationResultField && typ == protowire.BytesType:
			result, err := decodeAny(v)
			if err != nil {
				return err
			}
			op.Result = result
		}
		return nil
	})
	return op, err
}

func decodeIssue(b []byte) (ydbrpc.Issue, error) {
	var issue ydbrpc.Issue
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error {
		switch {
		case num == issueMessageField && typ == protowire.BytesType:
			issue.Message = string(v)
		case num == issueCodeField && typ == protowire.VarintType:
			issue.Code = uint32(n)
		case num == issueSeverityField && typ == protowire.VarintType:
			issue.Severity = uint32(n)
		case num == issueIssuesField && typ == protowire.BytesType:
			nested, err := decodeIssue(v)
			if err != nil {
				return err
			}
			issue.Issues = append(issue.Issues, nested)
		}
		return nil
	})
	return issue, err
}

func decodeAny(b []byte) (*Any, error) {
	a := &Any{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte, _ uint64) error {
		switch {
		case num == anyTypeURLField && typ == protowire.BytesType:
			a.TypeURL = string(v)
		case num == anyValueField && typ == protowire.BytesType:
			a.Value = append([]byte{}, v...)
		}
		return nil
	})
	return a, err
}

// walk calls fn for every field of a message. Length-delimited values arrive
// in v; varints in n. Fixed-width and group fields are skipped.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, n uint64) error) error {
	for len(b) > 0 {
		num, typ, tagLen := protowire.ConsumeTag(b)
		if tagLen < 0 {
			return protowire.ParseError(tagLen)
		}
		b = b[tagLen:]

		var (
			v    []byte
			n    uint64
			size int
		)
		switch typ {
		case protowire.BytesType:
			v, size = protowire.ConsumeBytes(b)
		case protowire.VarintType:
			n, size = protowire.ConsumeVarint(b)
		default:
			size = protowire.ConsumeFieldValue(num, typ, b)
		}
		if size < 0 {
			return protowire.ParseError(size)
		}
		b = b[size:]

		if typ == protowire.BytesType || typ == protowire.VarintType {
			if err := fn(num, typ, v, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// Encode serializes resp. It is the inverse of Decode for the fields Decode reads.
func Encode(resp *Response) []byte {
	if resp == nil || resp.Operation == nil {
		return nil
	}
	return protowire.AppendBytes(
		protowire.AppendTag(nil, responseOperationField, protowire.BytesType),
		encodeOperation(resp.Operation),
	)
}

func encodeOperation(op *Operation) []byte {
	var b []byte
	if op.ID != "" {
		b = protowire.AppendTag(b, operationIDField, protowire.BytesType)
		b = protowire.AppendString(b, op.ID)
	}
	if op.Ready {
		b = protowire.AppendTag(b, operationReadyField, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	if op.Status != ydbrpc.StatusUnspecified {
		b = protowire.AppendTag(b, operationStatusField, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(op.Status))
	}
	for _, issue := range op.Issues {
		b = protowire.AppendTag(b, operationIssuesField, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeIssue(issue))
	}
	if op.Result != nil {
		var a []byte
		if op.Result.TypeURL != "" {
			a = protowire.AppendTag(a, anyTypeURLField, protowire.BytesType)
			a = protowire.AppendString(a, op.Result.TypeURL)
		}
		if op.Result.Value != nil {
			a = protowire.AppendTag(a, anyValueField, protowire.BytesType)
			a = protowire.AppendBytes(a, op.Result.Value)
		}
		b = protowire.AppendTag(b, operationResultField, protowire.BytesType)
		b = protowire.AppendBytes(b, a)
	}
	return b
}

func encodeIssue(issue ydbrpc.Issue) []byte {
	var b []byte
	if issue.Message != "" {
		b = protowire.AppendTag(b, issueMessageField, protowire.BytesType)
		b = protowire.AppendString(b, issue.Message)
	}
	if issue.Code != 0 {
		b = protowire.AppendTag(b, issueCodeField, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(issue.Code))
	}
	if issue.Severity != 0 {
		b = protowire.AppendTag(b, issueSeverityField, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(issue.Severity))
	}
	for _, nested := range issue.Issues {
		b = protowire.AppendTag(b, issueIssuesField, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeIssue(nested))
	}
	return b
}

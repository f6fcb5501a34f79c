package cli

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vvka-141/ydbrpc/internal/operation"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// WhoAmIRequest / WhoAmIResult field numbers.
const (
	whoAmIIncludeGroupsField = 1

	whoAmIUserField   = 1
	whoAmIGroupsField = 2
)

type whoAmIResult struct {
	User   string
	Groups []string
}

// discoveryClient is a typed stub over the discovery service.
type discoveryClient struct {
	invoke ydbrpc.UnaryInvoker
}

func newDiscoveryClient(invoke ydbrpc.UnaryInvoker) *discoveryClient {
	return &discoveryClient{invoke: invoke}
}

// WhoAmI reports the user the call was authenticated as.
func (c *discoveryClient) WhoAmI(ctx context.Context, includeGroups bool) (*whoAmIResult, error) {
	raw, err := c.invoke(ctx, "WhoAmI", encodeWhoAmIRequest(includeGroups))
	if err != nil {
		return nil, err
	}
	payload, err := operation.Unwrap(raw)
	if err != nil {
		return nil, err
	}
	return decodeWhoAmIResult(payload)
}

func encodeWhoAmIRequest(includeGroups bool) []byte {
	if !includeGroups {
		return []byte{}
	}
	b := protowire.AppendTag(nil, whoAmIIncludeGroupsField, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(true))
}

func decodeWhoAmIResult(b []byte) (*whoAmIResult, error) {
	result := &whoAmIResult{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode WhoAmI result: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.BytesType && (num == whoAmIUserField || num == whoAmIGroupsField) {
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, fmt.Errorf("decode WhoAmI result: %w", protowire.ParseError(m))
			}
			b = b[m:]
			if num == whoAmIUserField {
				result.User = v
			} else {
				result.Groups = append(result.Groups, v)
			}
			continue
		}

		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return nil, fmt.Errorf("decode WhoAmI result: %w", protowire.ParseError(m))
		}
		b = b[m:]
	}
	return result, nil
}

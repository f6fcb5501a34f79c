package auth

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// CreateIamTokenRequest / CreateIamTokenResponse field numbers.
const (
	createTokenJWTField = 2

	createTokenIAMTokenField  = 1
	createTokenExpiresAtField = 2

	timestampSecondsField = 1
	timestampNanosField   = 2
)

func encodeCreateTokenRequest(assertion string) []byte {
	b := protowire.AppendTag(nil, createTokenJWTField, protowire.BytesType)
	return protowire.AppendString(b, assertion)
}

// decodeCreateTokenResponse returns the IAM token and its server-side expiry.
// Only the token is used for caching; the expiry is reported for logging.
func decodeCreateTokenResponse(b []byte) (string, time.Time, error) {
	var (
		token     string
		expiresAt time.Time
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", time.Time{}, fmt.Errorf("decode token response: %w", protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.BytesType && (num == createTokenIAMTokenField || num == createTokenExpiresAtField) {
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return "", time.Time{}, fmt.Errorf("decode token response: %w", protowire.ParseError(m))
			}
			b = b[m:]
			if num == createTokenIAMTokenField {
				token = string(v)
			} else {
				expiresAt = decodeTimestamp(v)
			}
			continue
		}

		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return "", time.Time{}, fmt.Errorf("decode token response: %w", protowire.ParseError(m))
		}
		b = b[m:]
	}
	return token, expiresAt, nil
}

func decodeTimestamp(b []byte) time.Time {
	var seconds, nanos int64
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 || typ != protowire.VarintType {
			return time.Time{}
		}
		v, m := protowire.ConsumeVarint(b[n:])
		if m < 0 {
			return time.Time{}
		}
		b = b[n+m:]
		switch num {
		case timestampSecondsField:
			seconds = int64(v)
		case timestampNanosField:
			nanos = int64(int32(v))
		}
	}
	return time.Unix(seconds, nanos).UTC()
}

package auth

import (
	"context"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// StaticCredentials attaches a fixed token to every call.
type StaticCredentials struct {
	token    string
	database string
}

// NewStaticCredentials creates credentials from a pre-issued access token.
func NewStaticCredentials(token, database string) *StaticCredentials {
	return &StaticCredentials{token: token, database: database}
}

// AuthMetadata never fails.
func (c *StaticCredentials) AuthMetadata(context.Context) (ydbrpc.AuthMetadata, error) {
	return ydbrpc.NewAuthMetadata(c.token, c.database), nil
}

func (c *StaticCredentials) String() string {
	return "StaticCredentials"
}

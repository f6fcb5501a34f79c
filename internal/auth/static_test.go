package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

func TestStaticCredentials_AuthMetadata(t *testing.T) {
	creds := NewStaticCredentials("t1.static", "/ru-central1/b1g/etn")

	for i := 0; i < 2; i++ {
		md, err := creds.AuthMetadata(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ydbrpc.AuthMetadata{
			{Name: ydbrpc.HeaderAuthTicket, Value: "t1.static"},
			{Name: ydbrpc.HeaderDatabase, Value: "/ru-central1/b1g/etn"},
		}, md)
	}
	assert.Equal(t, "StaticCredentials", creds.String())
}

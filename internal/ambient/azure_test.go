package ambient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// fakeAzureCredential implements azcore.TokenCredential
type fakeAzureCredential struct {
	scopes []string
	token  azcore.AccessToken
	err    error
}

func (c *fakeAzureCredential) GetToken(_ context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.scopes = opts.Scopes
	return c.token, c.err
}

func TestAzureFetcher_GetToken(t *testing.T) {
	expires := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)
	cred := &fakeAzureCredential{token: azcore.AccessToken{Token: "entra-token", ExpiresOn: expires}}

	fetcher, err := NewAzureFetcher(cred, "api://ydb/.default", "AzureTest")
	require.NoError(t, err)

	token, expiresOn, err := fetcher.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "entra-token", token)
	assert.Equal(t, expires, expiresOn)
	assert.Equal(t, []string{"api://ydb/.default"}, cred.scopes)
	assert.Equal(t, "AzureTest", fetcher.String())
}

func TestAzureFetcher_Errors(t *testing.T) {
	_, err := NewAzureFetcher(nil, "scope", "")
	assert.ErrorIs(t, err, ydbrpc.ErrInvalidConfig)

	_, err = NewAzureFetcher(&fakeAzureCredential{}, "", "")
	assert.ErrorIs(t, err, ydbrpc.ErrInvalidConfig)

	fetcher, err := NewAzureFetcher(&fakeAzureCredential{err: errors.New("imds down")}, "scope", "")
	require.NoError(t, err)
	_, _, err = fetcher.GetToken(context.Background())
	assert.ErrorContains(t, err, "azure token acquisition failed")
	assert.Equal(t, "Azure", fetcher.String())
}

func TestNewAzureServicePrincipalFetcher_RequiresAllFields(t *testing.T) {
	_, err := NewAzureServicePrincipalFetcher("tenant", "", "secret", "scope")
	assert.ErrorContains(t, err, "requires tenantID, clientID, and clientSecret")
	assert.Equal(t, ydbrpc.ExitConfigError, ydbrpc.ExitCodeForError(err))
}

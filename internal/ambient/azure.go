package ambient

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// AzureFetcher acquires Entra ID tokens for a fixed scope.
type AzureFetcher struct {
	credential azcore.TokenCredential
	scope      string
	name       string
}

// NewAzureFetcher wraps an existing credential.
func NewAzureFetcher(credential azcore.TokenCredential, scope, name string) (*AzureFetcher, error) {
	if credential == nil {
		return nil, fmt.Errorf("azure credential is required: %w", ydbrpc.ErrInvalidConfig)
	}
	if scope == "" {
		return nil, fmt.Errorf("azure token scope is required: %w", ydbrpc.ErrInvalidConfig)
	}
	return &AzureFetcher{credential: credential, scope: scope, name: name}, nil
}

// NewAzureServicePrincipalFetcher authenticates with a client secret.
func NewAzureServicePrincipalFetcher(tenantID, clientID, clientSecret, scope string) (*AzureFetcher, error) {
	if tenantID == "" || clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("azure service principal requires tenantID, clientID, and clientSecret: %w", ydbrpc.ErrInvalidConfig)
	}
	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return NewAzureFetcher(cred, scope, fmt.Sprintf("AzureServicePrincipal(tenant=%s, client=%s)", tenantID, clientID))
}

// NewAzureManagedIdentityFetcher uses the VM or workload managed identity.
// An empty clientID selects the system-assigned identity.
func NewAzureManagedIdentityFetcher(clientID, scope string) (*AzureFetcher, error) {
	opts := &azidentity.ManagedIdentityCredentialOptions{}
	name := "AzureManagedIdentity"
	if clientID != "" {
		opts.ID = azidentity.ClientID(clientID)
		name = fmt.Sprintf("AzureManagedIdentity(client=%s)", clientID)
	}
	cred, err := azidentity.NewManagedIdentityCredential(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure managed identity credential: %w", err)
	}
	return NewAzureFetcher(cred, scope, name)
}

// NewAzureDefaultFetcher uses the DefaultAzureCredential chain.
func NewAzureDefaultFetcher(scope string) (*AzureFetcher, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure default credential: %w", err)
	}
	return NewAzureFetcher(cred, scope, "AzureDefaultCredential")
}

func (f *AzureFetcher) GetToken(ctx context.Context) (string, time.Time, error) {
	token, err := f.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{f.scope}})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("azure token acquisition failed: %w", err)
	}
	return token.Token, token.ExpiresOn, nil
}

func (f *AzureFetcher) String() string {
	if f.name == "" {
		return "Azure"
	}
	return f.name
}

package ambient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/compute/metadata"
)

// defaultTokenPath is the instance service account token endpoint.
const defaultTokenPath = "instance/service-accounts/default/token"

// GCEFetcher reads the instance service account token from a GCE-compatible
// metadata server. The host is taken from GCE_METADATA_HOST when set.
type GCEFetcher struct {
	client *metadata.Client
	path   string
	now    func() time.Time
}

// NewGCEFetcher creates a fetcher. A nil httpClient uses the library default.
func NewGCEFetcher(httpClient *http.Client) *GCEFetcher {
	return &GCEFetcher{
		client: metadata.NewClient(httpClient),
		path:   defaultTokenPath,
		now:    time.Now,
	}
}

type metadataToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// GetToken queries the metadata server once.
func (f *GCEFetcher) GetToken(ctx context.Context) (string, time.Time, error) {
	body, err := f.client.GetWithContext(ctx, f.path)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("metadata token request failed: %w", err)
	}

	var tok metadataToken
	if err := json.Unmarshal([]byte(body), &tok); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse metadata token response: %w", err)
	}

	var expiresOn time.Time
	if tok.ExpiresIn > 0 {
		expiresOn = f.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return tok.AccessToken, expiresOn, nil
}

func (f *GCEFetcher) String() string {
	return "GCEMetadata"
}

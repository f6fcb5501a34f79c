package ambient

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/rds/auth"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// awsTokenLifetime is fixed by the signing service.
const awsTokenLifetime = 15 * time.Minute

// AWSFetcher builds SigV4-presigned IAM authentication tokens for an
// endpoint fronted by AWS IAM database authentication, such as a proxy in
// front of the database that verifies the presigned request and forwards
// the call. The database itself does not accept these tokens.
type AWSFetcher struct {
	endpoint string
	region   string
	dbUser   string

	mu          sync.Mutex
	credentials aws.CredentialsProvider
	now         func() time.Time
}

// NewAWSFetcher creates a fetcher. A nil provider loads the default AWS
// credential chain on first use.
func NewAWSFetcher(endpoint, region, dbUser string, credentials aws.CredentialsProvider) (*AWSFetcher, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("AWS IAM auth requires endpoint (host:port): %w", ydbrpc.ErrInvalidConfig)
	}
	if region == "" {
		return nil, fmt.Errorf("AWS IAM auth requires region (use --aws-region or $AWS_REGION): %w", ydbrpc.ErrInvalidConfig)
	}
	if dbUser == "" {
		return nil, fmt.Errorf("AWS IAM auth requires database user: %w", ydbrpc.ErrInvalidConfig)
	}
	return &AWSFetcher{
		endpoint:    endpoint,
		region:      region,
		dbUser:      dbUser,
		credentials: credentials,
		now:         time.Now,
	}, nil
}

func (f *AWSFetcher) credentialsProvider(ctx context.Context) (aws.CredentialsProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.credentials != nil {
		return f.credentials, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(f.region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	f.credentials = cfg.Credentials
	return f.credentials, nil
}

// GetToken presigns a connect token for dbUser. The token itself is the
// credential and expires after 15 minutes.
func (f *AWSFetcher) GetToken(ctx context.Context) (string, time.Time, error) {
	creds, err := f.credentialsProvider(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	issued := f.now()
	token, err := auth.BuildAuthToken(ctx, f.endpoint, f.region, f.dbUser, creds)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build AWS auth token: %w", err)
	}
	return token, issued.Add(awsTokenLifetime), nil
}

// String names the fetcher without credentials.
func (f *AWSFetcher) String() string {
	return fmt.Sprintf("AWSIAM(endpoint=%s, region=%s, user=%s)", f.endpoint, f.region, f.dbUser)
}

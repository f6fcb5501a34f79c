package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/vvka-141/ydbrpc/internal/ambient"
	"github.com/vvka-141/ydbrpc/internal/logging"
	"github.com/vvka-141/ydbrpc/internal/rpc"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// Options carries the ambient collaborators of a strategy.
type Options struct {
	Logger   ydbrpc.Logger
	Observer RefreshObserver

	// ExchangerOptions are applied to the IAM token service channel
	ExchangerOptions []rpc.Option
}

// NewCredentials creates the strategy selected by cfg.AuthMethod.
// Background work started for ambient providers stops when ctx ends.
func NewCredentials(ctx context.Context, cfg *ydbrpc.ConnectionConfig, opts Options) (ydbrpc.Credentials, error) {
	if cfg == nil {
		return nil, fmt.Errorf("connection config cannot be nil: %w", ydbrpc.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.OrNull(opts.Logger)

	switch cfg.AuthMethod {
	case ydbrpc.AuthMethodStatic:
		logger.Verbose("Using static token credentials")
		return NewStaticCredentials(cfg.Token, cfg.Database), nil
	case ydbrpc.AuthMethodIAM:
		return newIAMCredentials(cfg, opts, logger)
	case ydbrpc.AuthMethodMetadata:
		return newAmbientCredentials(ctx, cfg, opts, logger)
	default:
		return nil, fmt.Errorf("%s: %w", cfg.AuthMethod, ydbrpc.ErrUnsupportedAuthMethod)
	}
}

func newIAMCredentials(cfg *ydbrpc.ConnectionConfig, opts Options, logger ydbrpc.Logger) (*IAMCredentials, error) {
	account, err := serviceAccountFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	exchanger, err := NewGRPCExchanger(cfg.IAMEndpoint, logger, opts.ExchangerOptions...)
	if err != nil {
		return nil, err
	}

	logger.Verbose("Using IAM credentials for service account %s", account.ID)
	return NewIAMCredentials(account, cfg.Database, exchanger, IAMOptions{
		Logger:   logger,
		Observer: opts.Observer,
	})
}

func serviceAccountFromConfig(cfg *ydbrpc.ConnectionConfig) (ServiceAccount, error) {
	if cfg.ServiceAccountKeyFile != "" {
		key, err := LoadServiceAccountKey(cfg.ServiceAccountKeyFile)
		if err != nil {
			return ServiceAccount{}, err
		}
		rsaKey, err := key.RSAKey()
		if err != nil {
			return ServiceAccount{}, err
		}
		return ServiceAccount{ID: key.ServiceAccountID, AccessKeyID: key.ID, PrivateKey: rsaKey}, nil
	}

	pem, err := os.ReadFile(cfg.PrivateKeyFile)
	if err != nil {
		return ServiceAccount{}, fmt.Errorf("failed to read private key file: %w", err)
	}
	rsaKey, err := ParsePrivateKey(pem)
	if err != nil {
		return ServiceAccount{}, err
	}
	return ServiceAccount{ID: cfg.ServiceAccountID, AccessKeyID: cfg.AccessKeyID, PrivateKey: rsaKey}, nil
}

func newAmbientCredentials(ctx context.Context, cfg *ydbrpc.ConnectionConfig, opts Options, logger ydbrpc.Logger) (*AmbientCredentials, error) {
	fetcher, err := newFetcher(cfg)
	if err != nil {
		return nil, err
	}

	provider := ambient.NewCachedProvider(fetcher, ambient.Options{
		Logger:   logger,
		Observer: opts.Observer,
	})
	provider.StartBackgroundRefresh(ctx)

	logger.Verbose("Using ambient credentials from %s", fetcher)
	return NewAmbientCredentials(provider, cfg.Database, AmbientOptions{Logger: logger})
}

func newFetcher(cfg *ydbrpc.ConnectionConfig) (ambient.TokenFetcher, error) {
	switch cfg.MetadataProvider {
	case "", ydbrpc.MetadataProviderGCE:
		return ambient.NewGCEFetcher(nil), nil
	case ydbrpc.MetadataProviderAzure:
		switch {
		case cfg.AzureTenantID != "" && cfg.AzureClientID != "" && cfg.AzureClientSecret != "":
			return ambient.NewAzureServicePrincipalFetcher(cfg.AzureTenantID, cfg.AzureClientID, cfg.AzureClientSecret, cfg.AzureScope)
		case cfg.AzureClientID != "" && cfg.AzureClientSecret == "":
			return ambient.NewAzureManagedIdentityFetcher(cfg.AzureClientID, cfg.AzureScope)
		default:
			return ambient.NewAzureDefaultFetcher(cfg.AzureScope)
		}
	case ydbrpc.MetadataProviderAWS:
		region := cfg.AWSRegion
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		target, _ := rpc.ParseEndpoint(cfg.Endpoint)
		return ambient.NewAWSFetcher(target, region, cfg.AWSDBUser, nil)
	}
	return nil, fmt.Errorf("unknown metadata provider %q: %w", cfg.MetadataProvider, ydbrpc.ErrInvalidConfig)
}

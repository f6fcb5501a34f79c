package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/ydbrpc/internal/config"
	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	endpoint              string
	database              string
	secure                bool
	rootCAFile            string
	authMethod            string
	token                 string
	serviceAccountKeyFile string
	serviceAccountID      string
	accessKeyID           string
	privateKeyFile        string
	iamEndpoint           string
	metadata              string
	azureTenantID         string
	azureClientID         string
	azureClientSecret     string
	azureScope            string
	awsRegion             string
	awsDBUser             string
	timeout               time.Duration
}

func addConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.endpoint, "endpoint", "e", "", "Database endpoint, e.g. grpcs://ydb.serverless.yandexcloud.net:2135")
	flags.StringVarP(&f.database, "database", "d", "", "Database path, e.g. /ru-central1/b1g.../etn...")
	flags.BoolVar(&f.secure, "secure", false, "Use TLS even without a grpcs:// scheme")
	flags.StringVar(&f.rootCAFile, "root-ca-file", "", "PEM file with root certificates")
	flags.StringVar(&f.authMethod, "auth", "", "Credentials: static, iam or metadata (inferred when omitted)")
	flags.StringVar(&f.token, "token", "", "Static access token")
	flags.StringVar(&f.serviceAccountKeyFile, "sa-key-file", "", "Service account authorized key JSON file")
	flags.StringVar(&f.serviceAccountID, "sa-id", "", "Service account ID (with --access-key-id and --private-key-file)")
	flags.StringVar(&f.accessKeyID, "access-key-id", "", "Service account access key ID")
	flags.StringVar(&f.privateKeyFile, "private-key-file", "", "PEM file with the service account private key")
	flags.StringVar(&f.iamEndpoint, "iam-endpoint", "", "IAM token service endpoint")
	flags.StringVar(&f.metadata, "metadata", "", "Metadata provider: gce, azure or aws")
	flags.StringVar(&f.azureTenantID, "azure-tenant-id", "", "Azure AD tenant ID")
	flags.StringVar(&f.azureClientID, "azure-client-id", "", "Azure client ID (managed identity or service principal)")
	flags.StringVar(&f.azureClientSecret, "azure-client-secret", "", "Azure service principal secret")
	flags.StringVar(&f.azureScope, "azure-scope", "", "Azure token scope")
	flags.StringVar(&f.awsRegion, "aws-region", "", "AWS region (defaults to AWS_REGION)")
	flags.StringVar(&f.awsDBUser, "aws-db-user", "", "Database user for AWS IAM auth tokens")
	flags.DurationVar(&f.timeout, "timeout", ydbrpc.DefaultCallTimeout, "Deadline for the whole command")
}

// envConnection holds the YDB_* environment variables.
type envConnection struct {
	endpoint   string
	database   string
	token      string
	keyFile    string
	metadata   bool
	rootCAFile string
}

func loadEnvConnection() envConnection {
	return envConnection{
		endpoint:   os.Getenv("YDB_ENDPOINT"),
		database:   os.Getenv("YDB_DATABASE"),
		token:      os.Getenv("YDB_ACCESS_TOKEN_CREDENTIALS"),
		keyFile:    os.Getenv("YDB_SERVICE_ACCOUNT_KEY_FILE_CREDENTIALS"),
		metadata:   os.Getenv("YDB_METADATA_CREDENTIALS") == "1",
		rootCAFile: os.Getenv("YDB_SSL_ROOT_CERTIFICATES_FILE"),
	}
}

// loadClientConfig loads godotenv and ydbrpc.yaml.
// Returns nil config if ydbrpc.yaml does not exist (not an error).
func loadClientConfig(dir string) (*config.ClientConfig, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(dir)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return cfg, nil
}

// resolveConnection merges the three sources.
// Priority (highest to lowest): flags > environment > ydbrpc.yaml
func resolveConnection(cmd *cobra.Command, flags connectionFlags, env envConnection, file *config.ClientConfig) (*ydbrpc.ConnectionConfig, error) {
	cfg := &ydbrpc.ConnectionConfig{Timeout: flags.timeout}
	method := ""

	// First: ydbrpc.yaml (lowest priority)
	if file != nil {
		cfg.Endpoint = file.Endpoint
		cfg.Database = file.Database
		cfg.Secure = file.Secure
		cfg.RootCAFile = file.RootCAFile
		cfg.Token = file.Auth.Token
		cfg.ServiceAccountKeyFile = file.Auth.ServiceAccountKeyFile
		cfg.ServiceAccountID = file.Auth.ServiceAccountID
		cfg.AccessKeyID = file.Auth.AccessKeyID
		cfg.PrivateKeyFile = file.Auth.PrivateKeyFile
		cfg.IAMEndpoint = file.Auth.IAMEndpoint
		cfg.MetadataProvider = file.Auth.Metadata
		cfg.AzureTenantID = file.Auth.AzureTenantID
		cfg.AzureClientID = file.Auth.AzureClientID
		cfg.AzureClientSecret = file.Auth.AzureClientSecret
		cfg.AzureScope = file.Auth.AzureScope
		cfg.AWSRegion = file.Auth.AWSRegion
		cfg.AWSDBUser = file.Auth.AWSDBUser

		method = file.Auth.Method
		if method == "" {
			method = inferMethod(file.Auth.Token, file.Auth.ServiceAccountKeyFile != "" || file.Auth.ServiceAccountID != "", file.Auth.Metadata != "")
		}

		if !cmd.Flags().Changed("timeout") {
			timeout, err := file.ParsedTimeout()
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ydbrpc.ErrInvalidConfig, err)
			}
			if timeout > 0 {
				cfg.Timeout = timeout
			}
		}
	}

	// Second: environment
	override(&cfg.Endpoint, env.endpoint)
	override(&cfg.Database, env.database)
	override(&cfg.RootCAFile, env.rootCAFile)
	override(&cfg.ServiceAccountKeyFile, env.keyFile)
	override(&cfg.Token, env.token)
	if m := inferMethod(env.token, env.keyFile != "", env.metadata); m != "" {
		method = m
	}

	// Third: flags (highest priority)
	override(&cfg.Endpoint, flags.endpoint)
	override(&cfg.Database, flags.database)
	override(&cfg.RootCAFile, flags.rootCAFile)
	override(&cfg.Token, flags.token)
	override(&cfg.ServiceAccountKeyFile, flags.serviceAccountKeyFile)
	override(&cfg.ServiceAccountID, flags.serviceAccountID)
	override(&cfg.AccessKeyID, flags.accessKeyID)
	override(&cfg.PrivateKeyFile, flags.privateKeyFile)
	override(&cfg.IAMEndpoint, flags.iamEndpoint)
	override(&cfg.MetadataProvider, flags.metadata)
	override(&cfg.AzureTenantID, flags.azureTenantID)
	override(&cfg.AzureClientID, flags.azureClientID)
	override(&cfg.AzureClientSecret, flags.azureClientSecret)
	override(&cfg.AzureScope, flags.azureScope)
	override(&cfg.AWSRegion, flags.awsRegion)
	override(&cfg.AWSDBUser, flags.awsDBUser)
	cfg.Secure = cfg.Secure || flags.secure

	if flags.authMethod != "" {
		method = flags.authMethod
	} else if m := inferMethod(flags.token, flags.serviceAccountKeyFile != "" || flags.serviceAccountID != "", flags.metadata != ""); m != "" {
		method = m
	}

	if method == "" {
		return nil, fmt.Errorf("no credentials configured\n"+
			"Provide via:\n"+
			"  1. Flags: --token, --sa-key-file or --metadata gce\n"+
			"  2. Environment: YDB_ACCESS_TOKEN_CREDENTIALS, YDB_SERVICE_ACCOUNT_KEY_FILE_CREDENTIALS or YDB_METADATA_CREDENTIALS=1\n"+
			"  3. %s: auth.method: %w", config.ConfigFileName, ydbrpc.ErrInvalidConfig)
	}
	parsed, err := ydbrpc.ParseAuthMethod(method)
	if err != nil {
		return nil, err
	}
	cfg.AuthMethod = parsed
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// inferMethod picks a credential kind from whichever inputs a single source supplied.
// Key files win over metadata, which wins over a bare token.
func inferMethod(token string, serviceAccount, metadata bool) string {
	switch {
	case serviceAccount:
		return ydbrpc.AuthMethodIAM.String()
	case metadata:
		return ydbrpc.AuthMethodMetadata.String()
	case token != "":
		return ydbrpc.AuthMethodStatic.String()
	}
	return ""
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// logConnectionVerbose logs the resolved connection without secrets.
func logConnectionVerbose(logger ydbrpc.Logger, cfg *ydbrpc.ConnectionConfig) {
	logger.Verbose("Connection resolved: endpoint=%s database=%s auth=%s secure=%v timeout=%s",
		cfg.Endpoint, cfg.Database, cfg.AuthMethod, cfg.Secure, cfg.Timeout)
	if cfg.RootCAFile != "" {
		logger.Verbose("Root CA file: %s", cfg.RootCAFile)
	}
	if cfg.AuthMethod == ydbrpc.AuthMethodMetadata {
		provider := cfg.MetadataProvider
		if provider == "" {
			provider = ydbrpc.MetadataProviderGCE
		}
		logger.Verbose("Metadata provider: %s", provider)
	}
}

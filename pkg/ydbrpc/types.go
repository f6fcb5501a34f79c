package ydbrpc

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Header is a single outgoing call metadata entry.
type Header struct {
	Name  string
	Value string
}

// AuthMetadata is an ordered list of call headers produced by a Credentials strategy.
// Names are compared case-insensitively, matching gRPC metadata keys.
type AuthMetadata []Header

// NewAuthMetadata builds the two headers every authenticated call carries.
func NewAuthMetadata(token, database string) AuthMetadata {
	return AuthMetadata{
		{Name: HeaderAuthTicket, Value: token},
		{Name: HeaderDatabase, Value: database},
	}
}

// Get returns the value stored under name.
func (m AuthMetadata) Get(name string) (string, bool) {
	for _, h := range m {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Set replaces the value stored under name or appends a new header.
func (m AuthMetadata) Set(name, value string) AuthMetadata {
	for i, h := range m {
		if strings.EqualFold(h.Name, name) {
			m[i].Value = value
			return m
		}
	}
	return append(m, Header{Name: name, Value: value})
}

// Merge copies static headers into a new list. An empty static value is never
// added, and a header already holding a non-empty value is never overwritten.
func (m AuthMetadata) Merge(static AuthMetadata) AuthMetadata {
	out := make(AuthMetadata, len(m), len(m)+len(static))
	copy(out, m)
	for _, h := range static {
		if h.Value == "" {
			continue
		}
		if existing, ok := out.Get(h.Name); ok && existing != "" {
			continue
		}
		out = out.Set(h.Name, h.Value)
	}
	return out
}

// Pairs flattens the list into alternating lower-cased key/value strings.
func (m AuthMetadata) Pairs() []string {
	pairs := make([]string, 0, len(m)*2)
	for _, h := range m {
		pairs = append(pairs, strings.ToLower(h.Name), h.Value)
	}
	return pairs
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStatic   AuthMethod = iota // Fixed access token
	AuthMethodIAM                        // Service-account signed assertion exchanged for an IAM token
	AuthMethodMetadata                   // Ambient token from the hosting environment
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStatic:
		return "Static"
	case AuthMethodIAM:
		return "IAM"
	case AuthMethodMetadata:
		return "Metadata"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStatic && a <= AuthMethodMetadata
}

// ParseAuthMethod accepts the names used in config files and flags.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "token":
		return AuthMethodStatic, nil
	case "iam", "service-account", "service_account":
		return AuthMethodIAM, nil
	case "metadata", "ambient":
		return AuthMethodMetadata, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnsupportedAuthMethod)
}

// Ambient provider names accepted in ConnectionConfig.MetadataProvider.
const (
	MetadataProviderGCE   = "gce"
	MetadataProviderAzure = "azure"
	MetadataProviderAWS   = "aws"
)

// ConnectionConfig holds everything needed to open an authenticated channel.
type ConnectionConfig struct {
	// Endpoint is host:port, optionally prefixed with grpc:// or grpcs://
	Endpoint string
	Database string

	// Secure forces TLS even without a grpcs:// prefix
	Secure     bool
	RootCAFile string

	AuthMethod AuthMethod

	// Static
	Token string

	// IAM. A key file takes precedence over the individual fields.
	ServiceAccountKeyFile string
	ServiceAccountID      string
	AccessKeyID           string
	PrivateKeyFile        string
	IAMEndpoint           string

	// Metadata
	MetadataProvider string

	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
	AzureScope        string

	AWSRegion string
	AWSDBUser string

	Timeout time.Duration
	Verbose bool
}

// Validate checks required fields for the selected AuthMethod.
// It returns a multi-error if multiple validation failures occur.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	if c.Endpoint == "" {
		errs = append(errs, fmt.Errorf("endpoint is required: %w", ErrInvalidConfig))
	}
	if c.Database == "" {
		errs = append(errs, fmt.Errorf("database is required: %w", ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	switch c.AuthMethod {
	case AuthMethodStatic:
		if c.Token == "" {
			errs = append(errs, fmt.Errorf("token is required for static auth: %w", ErrInvalidConfig))
		}
	case AuthMethodIAM:
		if c.ServiceAccountKeyFile == "" {
			if c.ServiceAccountID == "" {
				errs = append(errs, fmt.Errorf("service account id is required for IAM auth: %w", ErrInvalidConfig))
			}
			if c.AccessKeyID == "" {
				errs = append(errs, fmt.Errorf("access key id is required for IAM auth: %w", ErrInvalidConfig))
			}
			if c.PrivateKeyFile == "" {
				errs = append(errs, fmt.Errorf("private key file is required for IAM auth: %w", ErrInvalidConfig))
			}
		}
	case AuthMethodMetadata:
		switch c.MetadataProvider {
		case "", MetadataProviderGCE:
		case MetadataProviderAzure:
			if c.AzureScope == "" {
				errs = append(errs, fmt.Errorf("azure scope is required for the azure metadata provider: %w", ErrInvalidConfig))
			}
		case MetadataProviderAWS:
			if c.AWSDBUser == "" {
				errs = append(errs, fmt.Errorf("aws db user is required for the aws metadata provider: %w", ErrInvalidConfig))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown metadata provider %q: %w", c.MetadataProvider, ErrInvalidConfig))
		}
	default:
		errs = append(errs, fmt.Errorf("%s: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}

	return errors.Join(errs...)
}

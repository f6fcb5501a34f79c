package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type AuthConfig struct {
	Method                string `yaml:"method"`
	Token                 string `yaml:"token,omitempty"`
	ServiceAccountKeyFile string `yaml:"service_account_key_file,omitempty"`
	ServiceAccountID      string `yaml:"service_account_id,omitempty"`
	AccessKeyID           string `yaml:"access_key_id,omitempty"`
	PrivateKeyFile        string `yaml:"private_key_file,omitempty"`
	IAMEndpoint           string `yaml:"iam_endpoint,omitempty"`

	// Metadata selects the ambient provider: gce, azure or aws
	Metadata          string `yaml:"metadata,omitempty"`
	AzureTenantID     string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID     string `yaml:"azure_client_id,omitempty"`
	AzureClientSecret string `yaml:"azure_client_secret,omitempty"`
	AzureScope        string `yaml:"azure_scope,omitempty"`
	AWSRegion         string `yaml:"aws_region,omitempty"`
	AWSDBUser         string `yaml:"aws_db_user,omitempty"`
}

type ClientConfig struct {
	Endpoint   string     `yaml:"endpoint"`
	Database   string     `yaml:"database"`
	Secure     bool       `yaml:"secure,omitempty"`
	RootCAFile string     `yaml:"root_ca_file,omitempty"`
	Auth       AuthConfig `yaml:"auth"`
	Timeout    string     `yaml:"timeout,omitempty"`
}

const ConfigFileName = "ydbrpc.yaml"

func Load(dir string) (*ClientConfig, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParsedTimeout returns Timeout as a duration; an empty value yields zero.
func (c *ClientConfig) ParsedTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q in %s: %w", c.Timeout, ConfigFileName, err)
	}
	return d, nil
}

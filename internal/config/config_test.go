package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_AllFields(t *testing.T) {
	dir := t.TempDir()
	content := `endpoint: grpcs://ydb.serverless.yandexcloud.net:2135
database: /ru-central1/b1g/etn
secure: true
root_ca_file: /path/ca.pem

auth:
  method: iam
  service_account_key_file: /path/authorized_key.json
  iam_endpoint: iam.api.cloud.yandex.net:443
  metadata: azure
  azure_tenant_id: tenant
  azure_client_id: client
  azure_scope: api://ydb/.default
  aws_region: eu-central-1
  aws_db_user: app

timeout: 10s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "grpcs://ydb.serverless.yandexcloud.net:2135", cfg.Endpoint)
	assert.Equal(t, "/ru-central1/b1g/etn", cfg.Database)
	assert.True(t, cfg.Secure)
	assert.Equal(t, "/path/ca.pem", cfg.RootCAFile)
	assert.Equal(t, "iam", cfg.Auth.Method)
	assert.Equal(t, "/path/authorized_key.json", cfg.Auth.ServiceAccountKeyFile)
	assert.Equal(t, "iam.api.cloud.yandex.net:443", cfg.Auth.IAMEndpoint)
	assert.Equal(t, "azure", cfg.Auth.Metadata)
	assert.Equal(t, "tenant", cfg.Auth.AzureTenantID)
	assert.Equal(t, "client", cfg.Auth.AzureClientID)
	assert.Equal(t, "api://ydb/.default", cfg.Auth.AzureScope)
	assert.Equal(t, "eu-central-1", cfg.Auth.AWSRegion)
	assert.Equal(t, "app", cfg.Auth.AWSDBUser)

	timeout, err := cfg.ParsedTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)
}

func TestLoad_MinimalYAML(t *testing.T) {
	dir := t.TempDir()
	content := `endpoint: grpc://localhost:2136
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "grpc://localhost:2136", cfg.Endpoint)
	assert.Equal(t, "", cfg.Database)
	assert.Equal(t, AuthConfig{}, cfg.Auth)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{{invalid"), 0644))

	cfg, err := Load(dir)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(""), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, ClientConfig{}, *cfg)
}

func TestParsedTimeout(t *testing.T) {
	tests := []struct {
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{timeout: "", want: 0},
		{timeout: "45s", want: 45 * time.Second},
		{timeout: "2m", want: 2 * time.Minute},
		{timeout: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.timeout, func(t *testing.T) {
			got, err := (&ClientConfig{Timeout: tt.timeout}).ParsedTimeout()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

package auth

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vvka-141/ydbrpc/pkg/ydbrpc"
)

// ServiceAccountKey is an authorized key as issued by the cloud console.
type ServiceAccountKey struct {
	ID               string `json:"id"`
	ServiceAccountID string `json:"service_account_id"`
	PrivateKey       string `json:"private_key"`
}

// LoadServiceAccountKey reads an authorized key JSON file.
func LoadServiceAccountKey(path string) (*ServiceAccountKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key file: %w", err)
	}

	var key ServiceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("failed to parse service account key file %s: %w", path, err)
	}
	if err := key.validate(); err != nil {
		return nil, fmt.Errorf("service account key file %s: %w", path, err)
	}
	return &key, nil
}

func (k *ServiceAccountKey) validate() error {
	switch {
	case k.ID == "":
		return fmt.Errorf("missing id: %w", ydbrpc.ErrInvalidConfig)
	case k.ServiceAccountID == "":
		return fmt.Errorf("missing service_account_id: %w", ydbrpc.ErrInvalidConfig)
	case k.PrivateKey == "":
		return fmt.Errorf("missing private_key: %w", ydbrpc.ErrInvalidConfig)
	}
	return nil
}

// RSAKey parses the PEM-encoded private key (PKCS#1 or PKCS#8).
func (k *ServiceAccountKey) RSAKey() (*rsa.PrivateKey, error) {
	return ParsePrivateKey([]byte(k.PrivateKey))
}

// ParsePrivateKey parses a PEM-encoded RSA private key.
func ParsePrivateKey(pem []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("invalid service account private key: %w", err)
	}
	return key, nil
}

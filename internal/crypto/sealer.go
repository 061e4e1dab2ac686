// Package crypto seals small pieces of personal data, such as escrow contact
// addresses, before they are written to the database.
package crypto

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fernet/fernet-go"
)

// ErrInvalidToken is returned when a sealed value cannot be verified with the configured key.
var ErrInvalidToken = errors.New("invalid or tampered sealed value")

// Sealer encrypts and authenticates values with a fernet key.
type Sealer struct {
	key *fernet.Key
}

// New creates a Sealer from a base64 encoded fernet key.
func New(encodedKey string) (*Sealer, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode fernet key: %w", err)
	}
	return &Sealer{key: key}, nil
}

// NewEphemeral creates a Sealer with a freshly generated key.
// Values sealed with it cannot be opened after the process exits.
func NewEphemeral() (*Sealer, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return nil, fmt.Errorf("failed to generate fernet key: %w", err)
	}
	return &Sealer{key: &key}, nil
}

// LoadOrCreate creates a Sealer from the key stored at path. When the file
// does not exist a new key is generated and written there with owner-only
// permissions, so the same key is used again after a restart.
func LoadOrCreate(path string) (*Sealer, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return New(strings.TrimSpace(string(data)))
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create key file: %w", err)
	}
	if _, err := f.WriteString(key + "\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return New(key)
}

// GenerateKey returns a new base64 encoded key suitable for New.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate fernet key: %w", err)
	}
	return key.Encode(), nil
}

// Seal encrypts plaintext and returns the fernet token.
func (s *Sealer) Seal(plaintext string) (string, error) {
	token, err := fernet.EncryptAndSign([]byte(plaintext), s.key)
	if err != nil {
		return "", fmt.Errorf("failed to seal value: %w", err)
	}
	return string(token), nil
}

// Open verifies and decrypts a token produced by Seal. Tokens never expire.
func (s *Sealer) Open(token string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{s.key})
	if msg == nil {
		return "", ErrInvalidToken
	}
	return string(msg), nil
}

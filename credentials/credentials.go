// Package credentials stores the MinuteMe session token or API key in
// ~/.minuteme/credentials.yaml, encrypted at rest with AES-GCM.
//
// The encryption key lives in the system keyring (macOS Keychain, Windows
// Credential Manager, Linux Secret Service). For CI set MINUTEME_ENCRYPTION_KEY
// to a 64-character hex string. Where neither is available, MINUTEME_PASSPHRASE
// derives the key with Argon2id.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCredentialsDir  = ".minuteme"
	DefaultCredentialsFile = "credentials.yaml"

	// AuthTypeAPIKey represents API key authentication.
	AuthTypeAPIKey = "api_key"
	// AuthTypeToken represents an identity-provider session JWT.
	AuthTypeToken = "token"

	EnvToken  = "MINUTEME_TOKEN"
	EnvAPIKey = "MINUTEME_API_KEY"
)

var (
	// ErrNoCredentials is returned when no credentials are stored.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrExpiredToken is returned when the stored token has expired.
	ErrExpiredToken = errors.New("stored token has expired")
	// ErrInvalidCredentials is returned when stored credentials are malformed.
	ErrInvalidCredentials = errors.New("invalid credentials format")
	// ErrEncryptionFailed is returned when encryption/decryption fails.
	ErrEncryptionFailed = errors.New("encryption failed")
)

// Credentials holds the stored authentication credentials.
type Credentials struct {
	AuthType string `yaml:"auth_type"`

	// APIKey and Token are encrypted at rest.
	APIKey string `yaml:"api_key,omitempty"`
	Token  string `yaml:"token,omitempty"`

	ExpiresAt  time.Time `yaml:"expires_at,omitempty"`
	APIBaseURL string    `yaml:"api_base_url,omitempty"`

	// Subject and Email describe the signed-in user, read from the token at login.
	Subject string `yaml:"subject,omitempty"`
	Email   string `yaml:"email,omitempty"`

	// Source is "env" for credentials taken from MINUTEME_TOKEN/MINUTEME_API_KEY.
	Source string `yaml:"-"`

	LastUpdated time.Time `yaml:"last_updated"`
}

// Secret returns the value sent as the bearer token.
func (c *Credentials) Secret() string {
	if c.AuthType == AuthTypeAPIKey {
		return c.APIKey
	}
	return c.Token
}

// Validate checks that the credential carries the secret its type requires.
func (c *Credentials) Validate() error {
	switch c.AuthType {
	case AuthTypeAPIKey:
		if c.APIKey == "" {
			return fmt.Errorf("%w: api_key auth without a key", ErrInvalidCredentials)
		}
	case AuthTypeToken:
		if c.Token == "" {
			return fmt.Errorf("%w: token auth without a token", ErrInvalidCredentials)
		}
	default:
		return fmt.Errorf("%w: unknown auth_type %q", ErrInvalidCredentials, c.AuthType)
	}
	return nil
}

// IsExpired reports whether a token credential is past its expiry.
func (c *Credentials) IsExpired(now time.Time) bool {
	return c.AuthType == AuthTypeToken && !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Store manages credential storage operations.
type Store struct {
	credentialsDir string
	encryptionKey  []byte
	keyProvider    KeyProvider
	now            func() time.Time
}

// NewStore creates a credential store using the default key provider.
func NewStore() (*Store, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return nil, fmt.Errorf("getting credentials directory: %w", err)
	}

	keyProvider, err := GetDefaultKeyProvider(dir)
	if err != nil {
		return nil, fmt.Errorf("initializing key provider: %w", err)
	}

	return newStore(dir, keyProvider)
}

// NewStoreWithKeyProvider creates a credential store with a custom key provider.
func NewStoreWithKeyProvider(keyProvider KeyProvider) (*Store, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return nil, fmt.Errorf("getting credentials directory: %w", err)
	}
	return newStore(dir, keyProvider)
}

func newStore(dir string, keyProvider KeyProvider) (*Store, error) {
	key, err := keyProvider.GetKey()
	if err != nil {
		return nil, fmt.Errorf("getting encryption key: %w", err)
	}
	return &Store{
		credentialsDir: dir,
		encryptionKey:  key,
		keyProvider:    keyProvider,
		now:            time.Now,
	}, nil
}

// KeyDescription names where the encryption key is kept.
func (s *Store) KeyDescription() string {
	return s.keyProvider.Description()
}

// CredentialsDir returns the credentials directory path.
// Uses $MINUTEME_CONFIG_DIR if set, otherwise ~/.minuteme
func CredentialsDir() (string, error) {
	if dir := os.Getenv("MINUTEME_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultCredentialsDir), nil
}

// CredentialsPath returns the full path to the credentials file.
func CredentialsPath() (string, error) {
	dir, err := CredentialsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultCredentialsFile), nil
}

func (s *Store) path() string {
	return filepath.Join(s.credentialsDir, DefaultCredentialsFile)
}

// Save stores credentials to the credentials file.
func (s *Store) Save(creds *Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.credentialsDir, 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	stored := *creds
	stored.LastUpdated = s.now()

	for _, field := range []*string{&stored.APIKey, &stored.Token} {
		if *field == "" {
			continue
		}
		sealed, err := s.encrypt(*field)
		if err != nil {
			return fmt.Errorf("encrypting credential: %w", err)
		}
		*field = sealed
	}

	data, err := yaml.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.WriteFile(s.path(), data, 0600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}

// Load reads credentials from the credentials file.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	for _, field := range []*string{&creds.APIKey, &creds.Token} {
		if *field == "" {
			continue
		}
		plain, err := s.decrypt(*field)
		if err != nil {
			return nil, fmt.Errorf("decrypting credential (run 'minuteme auth login' again): %w", err)
		}
		*field = plain
	}

	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Delete removes stored credentials.
func (s *Store) Delete() error {
	if err := os.Remove(s.path()); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("removing credentials file: %w", err)
	}
	return nil
}

// Exists checks if credentials file exists.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path())
	return err == nil
}

func (s *Store) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: creating cipher: %v", ErrEncryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: creating GCM: %v", ErrEncryptionFailed, err)
	}
	return gcm, nil
}

func (s *Store) encrypt(plaintext string) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: generating nonce: %v", ErrEncryptionFailed, err)
	}

	return base64.StdEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

func (s *Store) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: decoding base64: %v", ErrEncryptionFailed, err)
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrEncryptionFailed)
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: decryption failed: %v", ErrEncryptionFailed, err)
	}
	return string(plaintext), nil
}

// GetActiveCredential returns the credential commands should use.
// MINUTEME_TOKEN and MINUTEME_API_KEY take precedence over the stored file.
func (s *Store) GetActiveCredential() (*Credentials, error) {
	if token := os.Getenv(EnvToken); token != "" {
		return &Credentials{AuthType: AuthTypeToken, Token: token, Source: "env"}, nil
	}
	if apiKey := os.Getenv(EnvAPIKey); apiKey != "" {
		return &Credentials{AuthType: AuthTypeAPIKey, APIKey: apiKey, Source: "env"}, nil
	}

	creds, err := s.Load()
	if err != nil {
		return nil, err
	}
	if creds.IsExpired(s.now()) {
		return nil, ErrExpiredToken
	}
	creds.Source = "file"
	return creds, nil
}

// MaskAPIKey returns a masked API key showing only a short prefix.
func MaskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return strings.Repeat("*", len(apiKey))
	}
	return apiKey[:4] + strings.Repeat("*", 8) + "..."
}

// MaskToken returns a masked token with first/last few characters visible.
func MaskToken(token string) string {
	if len(token) <= 20 {
		return strings.Repeat("*", len(token))
	}
	return token[:8] + "..." + token[len(token)-8:]
}

// FormatExpiry formats the expiry time for display.
func FormatExpiry(expiresAt time.Time) string {
	if expiresAt.IsZero() {
		return "never"
	}

	remaining := time.Until(expiresAt)
	if remaining < 0 {
		return "expired"
	}
	if remaining < time.Hour {
		return fmt.Sprintf("%d minutes", int(remaining.Minutes()))
	}
	if remaining < 24*time.Hour {
		return fmt.Sprintf("%d hours", int(remaining.Hours()))
	}
	return fmt.Sprintf("%d days", int(remaining.Hours()/24))
}

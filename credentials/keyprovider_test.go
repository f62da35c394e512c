package credentials

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

var errNoSecretService = errors.New("org.freedesktop.secrets was not provided by any .service files")

func TestEnvKeyProvider_GetKey(t *testing.T) {
	const envVar = "TEST_MINUTEME_ENCRYPTION_KEY"

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid key", testEncryptionKey, false},
		{"missing env var", "", true},
		{"invalid hex", "not-valid-hex", true},
		{"wrong length", "0123456789abcdef", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envVar, tt.value)
			key, err := NewEnvKeyProvider(envVar).GetKey()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			want, _ := hex.DecodeString(testEncryptionKey)
			assert.Equal(t, want, key)
		})
	}
}

func TestEnvKeyProvider_ResetAndDescription(t *testing.T) {
	p := NewEnvKeyProvider("X_KEY")
	_, err := p.ResetKey()
	assert.Error(t, err)
	assert.Equal(t, "Environment variable (X_KEY)", p.Description())
}

func TestPassphraseKeyProvider_GetKey(t *testing.T) {
	salt := []byte("0123456789abcdef")

	k1, err := NewPassphraseKeyProvider("correct horse", salt).GetKey()
	require.NoError(t, err)
	assert.Len(t, k1, keyLength)

	k2, err := NewPassphraseKeyProvider("correct horse", salt).ResetKey()
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "same passphrase and salt derive the same key")

	k3, err := NewPassphraseKeyProvider("battery staple", salt).GetKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	_, err = NewPassphraseKeyProvider("", salt).GetKey()
	assert.Error(t, err)
	_, err = NewPassphraseKeyProvider("pw", nil).GetKey()
	assert.Error(t, err)

	assert.Contains(t, NewPassphraseKeyProvider("pw", salt).Description(), "Argon2id")
}

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestLoadOrCreateSalt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	first, err := LoadOrCreateSalt(dir)
	require.NoError(t, err)
	second, err := LoadOrCreateSalt(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, os.WriteFile(filepath.Join(dir, saltFile), []byte("zz"), 0600))
	_, err = LoadOrCreateSalt(dir)
	assert.Error(t, err)
}

func TestKeyringKeyProvider_Description(t *testing.T) {
	assert.NotEmpty(t, NewKeyringKeyProvider().Description())
}

func TestKeyringKeyProvider_MockBackend(t *testing.T) {
	keyring.MockInit()

	p := NewKeyringKeyProvider()
	k1, err := p.GetKey()
	require.NoError(t, err)
	assert.Len(t, k1, keyLength)

	k2, err := p.GetKey()
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "key is persisted in the keyring")

	k3, err := p.ResetKey()
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)
}

func TestGetDefaultKeyProvider(t *testing.T) {
	t.Run("env var", func(t *testing.T) {
		t.Setenv(EnvEncryptionKey, testEncryptionKey)
		p, err := GetDefaultKeyProvider(t.TempDir())
		require.NoError(t, err)
		assert.IsType(t, &EnvKeyProvider{}, p)
	})

	t.Run("keyring", func(t *testing.T) {
		keyring.MockInit()
		t.Setenv(EnvEncryptionKey, "")
		p, err := GetDefaultKeyProvider(t.TempDir())
		require.NoError(t, err)
		assert.IsType(t, &KeyringKeyProvider{}, p)
	})

	t.Run("passphrase fallback", func(t *testing.T) {
		keyring.MockInitWithError(errNoSecretService)
		t.Cleanup(keyring.MockInit)
		t.Setenv(EnvEncryptionKey, "")
		t.Setenv(EnvPassphrase, "correct horse")

		dir := t.TempDir()
		p, err := GetDefaultKeyProvider(dir)
		require.NoError(t, err)
		assert.IsType(t, &PassphraseKeyProvider{}, p)
		assert.FileExists(t, filepath.Join(dir, saltFile))
	})

	t.Run("nothing available", func(t *testing.T) {
		keyring.MockInitWithError(errNoSecretService)
		t.Cleanup(keyring.MockInit)
		t.Setenv(EnvEncryptionKey, "")
		t.Setenv(EnvPassphrase, "")

		_, err := GetDefaultKeyProvider(t.TempDir())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrKeyringUnavailable)
		assert.Contains(t, err.Error(), EnvPassphrase)
	})
}

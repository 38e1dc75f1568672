// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querent-dev/querent/internal/secrets"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

func TestIsKeyringURI(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid URI", "keyring://querent/provider.api_key", true},
		{"valid URI with dashes", "keyring://my-svc/my-key", true},
		{"env var reference", "${QUERENT_PROVIDER_API_KEY}", false},
		{"literal value", "sk-abc123", false},
		{"empty string", "", false},
		{"just scheme", "keyring://", true},
		{"other scheme", "vault://secret/key", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := secrets.IsKeyringURI(tt.value)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantService string
		wantKey     string
		wantErr     bool
	}{
		{"valid", "keyring://querent/api-key", "querent", "api-key", false},
		{"dashes", "keyring://my-service/my-key-name", "my-service", "my-key-name", false},
		{"slashes in key", "keyring://querent/path/to/key", "querent", "path/to/key", false},
		{"not a keyring URI", "vault://secret/key", "", "", true},
		{"missing key", "keyring://querent/", "", "", true},
		{"missing service", "keyring:///key", "", "", true},
		{"missing both", "keyring://", "", "", true},
		{"no path", "keyring://querent", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, key, err := secrets.ParseKeyringURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, qerr.HasCode(err, qerr.CodeSecretInvalidInput))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantService, svc)
				assert.Equal(t, tt.wantKey, key)
			}
		})
	}
}

func TestResolveKeyringURI(t *testing.T) {
	ks := secrets.NewKeyringStore()
	require.NoError(t, ks.Store("querent", "test-key", "resolved-secret"))

	t.Run("resolves keyring URI", func(t *testing.T) {
		val, err := secrets.ResolveKeyringURI(ks, "keyring://querent/test-key")
		require.NoError(t, err)
		assert.Equal(t, "resolved-secret", val)
	})

	t.Run("passes through non-keyring values", func(t *testing.T) {
		val, err := secrets.ResolveKeyringURI(ks, "literal-value")
		require.NoError(t, err)
		assert.Equal(t, "literal-value", val)
	})

	t.Run("passes through env var references", func(t *testing.T) {
		val, err := secrets.ResolveKeyringURI(ks, "${ENV_VAR}")
		require.NoError(t, err)
		assert.Equal(t, "${ENV_VAR}", val)
	})

	t.Run("error on missing secret", func(t *testing.T) {
		_, err := secrets.ResolveKeyringURI(ks, "keyring://querent/nonexistent")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolving keyring URI")
	})

	t.Run("error on malformed URI", func(t *testing.T) {
		_, err := secrets.ResolveKeyringURI(ks, "keyring://bad")
		require.Error(t, err)
	})
}

func TestResolveProviderKey(t *testing.T) {
	ks := secrets.NewKeyringStore()

	t.Run("configured value wins", func(t *testing.T) {
		val, err := secrets.ResolveProviderKey(ks, "sk-from-config")
		require.NoError(t, err)
		assert.Equal(t, "sk-from-config", val)
	})

	t.Run("keyring URI in config is dereferenced", func(t *testing.T) {
		require.NoError(t, ks.Store("custom-svc", "my-key", "sk-from-uri"))

		val, err := secrets.ResolveProviderKey(ks, "keyring://custom-svc/my-key")
		require.NoError(t, err)
		assert.Equal(t, "sk-from-uri", val)
	})

	t.Run("empty config falls back to well-known entry", func(t *testing.T) {
		require.NoError(t, ks.Store(secrets.Service, secrets.ProviderAPIKey, "sk-from-keyring"))
		defer ks.Delete(secrets.Service, secrets.ProviderAPIKey)

		val, err := secrets.ResolveProviderKey(ks, "")
		require.NoError(t, err)
		assert.Equal(t, "sk-from-keyring", val)
	})

	t.Run("absent everywhere resolves to empty", func(t *testing.T) {
		val, err := secrets.ResolveProviderKey(ks, "")
		require.NoError(t, err)
		assert.Empty(t, val)
	})
}

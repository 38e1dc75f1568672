// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package secrets

import (
	"strings"

	qerr "github.com/querent-dev/querent/pkg/errors"
)

const keyringScheme = "keyring://"

// IsKeyringURI reports whether value uses the keyring:// URI scheme.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, keyringScheme)
}

// ParseKeyringURI extracts service and key from a keyring://service/key URI.
// Returns an error if the URI is malformed.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", qerr.Errorf(qerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	path := strings.TrimPrefix(uri, keyringScheme)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", qerr.Errorf(qerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}

	return parts[0], parts[1], nil
}

// ResolveKeyringURI resolves a single keyring:// URI to its secret value.
// Returns the original value unchanged if it is not a keyring URI.
func ResolveKeyringURI(store Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}

	secret, err := store.Retrieve(service, key)
	if err != nil {
		return "", qerr.Wrapf(err, qerr.CodeSecretBackendFailure,
			"resolving keyring URI %q", value)
	}

	return secret, nil
}

// ResolveProviderKey resolves the LLM backend credential. A configured value
// wins (the config layer has already merged file and environment); a
// keyring:// URI is dereferenced; an empty value falls back to the
// well-known querent keyring entry. An absent secret resolves to "", leaving
// the final complaint to the provider constructor that actually needs it.
func ResolveProviderKey(store Store, configValue string) (string, error) {
	if configValue != "" {
		return ResolveKeyringURI(store, configValue)
	}

	secret, err := store.Retrieve(Service, ProviderAPIKey)
	if err != nil {
		if qerr.HasCode(err, qerr.CodeSecretNotFound) {
			return "", nil
		}
		return "", err
	}
	return secret, nil
}

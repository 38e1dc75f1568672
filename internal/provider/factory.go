// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package provider

import (
	qerr "github.com/querent-dev/querent/pkg/errors"
)

// Backend names a supported provider implementation.
type Backend string

const (
	BackendAzure     Backend = "azure"
	BackendAnthropic Backend = "anthropic"
)

// Settings is the provider-agnostic configuration surface. Which fields are
// required depends on the backend: azure needs Endpoint, APIKey, Deployment
// and APIVersion; anthropic needs APIKey and Deployment (the model name).
type Settings struct {
	Backend    Backend
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string

	// BaseURL overrides the SDK base URL, used by tests.
	BaseURL string
}

// Factory builds a Provider from Settings. Adapters register themselves at
// init time so the config layer never imports SDK packages.
type Factory func(Settings) (Provider, error)

var factories = map[Backend]Factory{}

// RegisterBackend makes a Factory available under the given name.
func RegisterBackend(name Backend, f Factory) {
	factories[name] = f
}

// New builds the Provider selected by s.Backend.
func New(s Settings) (Provider, error) {
	f, ok := factories[s.Backend]
	if !ok {
		return nil, qerr.New(qerr.CodeProviderBackendUnsupported,
			"unknown provider backend: "+string(s.Backend),
			qerr.FieldBackend(string(s.Backend)))
	}
	return f(s)
}

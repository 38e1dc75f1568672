// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/querent-dev/querent/internal/ask"
	"github.com/querent-dev/querent/internal/config"
	"github.com/querent-dev/querent/internal/graph/sparqlhttp"
	"github.com/querent-dev/querent/internal/provider"
	_ "github.com/querent-dev/querent/internal/provider/anthropic" // register anthropic backend
	_ "github.com/querent-dev/querent/internal/provider/azure"     // register azure backend
	"github.com/querent-dev/querent/internal/secrets"
	"github.com/querent-dev/querent/internal/store"
	"github.com/querent-dev/querent/internal/store/sqlite"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

// secretStoreFactory creates a secrets.Store. It is a package-level variable
// so tests can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// loadConfig resolves the config file from the --config flag or the default
// location, bootstrapping a commented default on first run.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if def, err := config.DefaultConfigPath(); err == nil {
			if _, statErr := os.Stat(def); statErr == nil {
				path = def
			} else if bootstrapped := config.BootstrapConfig(); bootstrapped != "" {
				path = bootstrapped
			}
		}
	}

	if path != "" {
		config.WarnInsecurePermissions(path)
	}

	return config.Load(path)
}

// buildEngine wires the question-answering loop from configuration: model
// provider, SPARQL store, and loop caps. The API key resolves with keyring
// fallback when the config leaves it empty.
func buildEngine(cfg *config.Config) (*ask.Engine, error) {
	apiKey, err := secrets.ResolveProviderKey(secretStoreFactory(), cfg.Provider.APIKey)
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeCLISetupFailure, "resolving provider API key")
	}

	prov, err := provider.New(provider.Settings{
		Backend:    provider.Backend(cfg.Provider.Backend),
		Endpoint:   cfg.Provider.Endpoint,
		APIKey:     apiKey,
		Deployment: cfg.Provider.Deployment,
		APIVersion: cfg.Provider.APIVersion,
	})
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeCLISetupFailure, "creating provider")
	}

	graphStore, err := sparqlhttp.New(sparqlhttp.Config{
		Endpoint: cfg.Graph.Endpoint,
		Dataset:  cfg.Graph.Dataset,
		Timeout:  cfg.Graph.Timeout,
	})
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeCLISetupFailure, "creating graph client")
	}

	return ask.New(ask.Config{
		Store:          graphStore,
		Provider:       prov,
		MaxRetries:     cfg.Ask.MaxRetries,
		ComposeRowCap:  cfg.Ask.ComposeRowCap,
		ValidateRowCap: cfg.Ask.ValidateRowCap,
		PredicateCap:   cfg.Ask.SchemaPredicateCap,
		SampleCap:      cfg.Ask.SchemaSampleCap,
		SampleFilter:   cfg.Ask.SchemaSampleFilter,
		Logger:         slog.Default(),
	})
}

// openHistory opens the session history database at the configured path.
func openHistory(cfg *config.Config) (store.SessionStore, error) {
	hs, err := sqlite.NewHistoryStore(cfg.Storage.Path)
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeCLISetupFailure, "opening history database")
	}
	return hs, nil
}

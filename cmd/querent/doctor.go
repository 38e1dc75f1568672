// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package main

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/querent-dev/querent/internal/config"
	"github.com/querent-dev/querent/internal/graph/fuseki"
	"github.com/querent-dev/querent/internal/secrets"
)

// doctorHTTPClient is the HTTP client used for endpoint probes. Exposed as a
// variable so tests can replace it.
var doctorHTTPClient = &http.Client{Timeout: 5 * time.Second}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check binary health, configuration, provider credentials, graph database, history storage, and disk space.",
		RunE:  runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	cfg, cfgErr := loadConfig(cmd)

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Platform", checkPlatform},
		{"Config", func() string { return checkConfig(cfg, cfgErr) }},
		{"Provider", func() string { return checkProvider(cfg) }},
		{"Graph", func() string { return checkGraph(cfg) }},
		{"Container", func() string { return checkContainer(cmd) }},
		{"History", func() string { return checkHistory(cfg) }},
		{"Disk Space", func() string { return checkDiskSpace(cfg) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-14s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("querent %s (%s/%s)", version, runtime.GOOS, runtime.GOARCH)
}

func checkPlatform() string {
	return fmt.Sprintf("%s/%s, Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig(cfg *config.Config, cfgErr error) string {
	if cfgErr != nil {
		return fmt.Sprintf("error: %s", cfgErr)
	}
	if path, err := config.DefaultConfigPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return fmt.Sprintf("loaded from %s", path)
		}
	}
	return "using defaults (no config file found)"
}

func checkProvider(cfg *config.Config) string {
	if cfg == nil {
		return "skipped (config failed to load)"
	}

	key, err := secrets.ResolveProviderKey(secretStoreFactory(), cfg.Provider.APIKey)
	switch {
	case err != nil:
		return fmt.Sprintf("%s backend, key resolution error: %s", cfg.Provider.Backend, err)
	case key == "":
		return fmt.Sprintf("%s backend, no API key (run 'querent secret set %s')", cfg.Provider.Backend, secrets.ProviderAPIKey)
	default:
		return fmt.Sprintf("%s backend, API key present", cfg.Provider.Backend)
	}
}

func checkGraph(cfg *config.Config) string {
	if cfg == nil {
		return "skipped (config failed to load)"
	}

	resp, err := doctorHTTPClient.Get(cfg.Graph.Endpoint + "/$/ping")
	if err != nil {
		return fmt.Sprintf("not reachable at %s (run 'querent graph up')", cfg.Graph.Endpoint)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("endpoint %s answered %s", cfg.Graph.Endpoint, resp.Status)
	}
	return fmt.Sprintf("reachable at %s, dataset %q", cfg.Graph.Endpoint, cfg.Graph.Dataset)
}

func checkContainer(cmd *cobra.Command) string {
	mgr, err := fuseki.NewManager(nil)
	if err != nil {
		return fmt.Sprintf("docker unavailable: %s", err)
	}

	status, err := mgr.Status(cmd.Context())
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	switch {
	case !status.Exists:
		return "not created (run 'querent graph up')"
	case status.Running:
		return fmt.Sprintf("running (container %.12s)", status.ID)
	default:
		return fmt.Sprintf("stopped (container %.12s)", status.ID)
	}
}

func checkHistory(cfg *config.Config) string {
	if cfg == nil {
		return "skipped (config failed to load)"
	}

	info, err := os.Stat(cfg.Storage.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("no database yet at %s", cfg.Storage.Path)
		}
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("%s (%s)", cfg.Storage.Path, formatBytes(uint64(info.Size())))
}

func checkDiskSpace(cfg *config.Config) string {
	path := ""
	if cfg != nil {
		path = cfg.Ingest.DataDir
	}
	if _, err := os.Stat(path); path == "" || os.IsNotExist(err) {
		path, _ = os.UserHomeDir()
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return fmt.Sprintf("unable to check: %s", err)
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	return formatBytes(availBytes) + " available"
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		gb = 1024 * 1024 * 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}

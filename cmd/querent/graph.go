// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/querent-dev/querent/internal/graph/fuseki"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Manage the local graph database container",
		Long:  "Start, stop, and inspect the Fuseki container that holds the card graph. Requires a running Docker daemon.",
	}

	cmd.AddCommand(
		newGraphUpCmd(),
		newGraphDownCmd(),
		newGraphStatusCmd(),
	)

	return cmd
}

func newGraphUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Start the graph database container",
		RunE:  runGraphUp,
	}
}

func newGraphDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop and remove the graph database container",
		RunE:  runGraphDown,
	}
}

func newGraphStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show graph database container status",
		RunE:  runGraphStatus,
	}
}

func runGraphUp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	port, err := endpointPort(cfg.Graph.Endpoint)
	if err != nil {
		return err
	}

	mgr, err := fuseki.NewManager(slog.Default())
	if err != nil {
		return err
	}

	id, err := mgr.EnsureRunning(cmd.Context(), cfg.Graph.Dataset, port)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Graph database running on port %d (container %.12s).", port, id)))
	return nil
}

func runGraphDown(cmd *cobra.Command, _ []string) error {
	mgr, err := fuseki.NewManager(slog.Default())
	if err != nil {
		return err
	}

	if err := mgr.Stop(cmd.Context()); err != nil {
		if qerr.IsNotFound(err) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Graph database container not found.")
			return nil
		}
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Graph database stopped.")
	return nil
}

func runGraphStatus(cmd *cobra.Command, _ []string) error {
	mgr, err := fuseki.NewManager(slog.Default())
	if err != nil {
		return err
	}

	status, err := mgr.Status(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case !status.Exists:
		_, _ = fmt.Fprintln(out, "Graph database container not found. Run 'querent graph up' to start it.")
	case status.Running:
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Graph database running (container %.12s).", status.ID)))
	default:
		_, _ = fmt.Fprintf(out, "Graph database stopped (container %.12s).\n", status.ID)
	}
	return nil
}

// endpointPort extracts the host port the container should publish from the
// configured endpoint URL.
func endpointPort(endpoint string) (int, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return 0, qerr.Errorf(qerr.CodeCLIInputInvalid, "parsing graph endpoint %q: %w", endpoint, err)
	}

	if u.Port() == "" {
		return 3030, nil
	}

	port, err := strconv.Atoi(u.Port())
	if err != nil || port < 1 || port > 65535 {
		return 0, qerr.Errorf(qerr.CodeCLIInputInvalid, "invalid port in graph endpoint %q", endpoint)
	}
	return port, nil
}

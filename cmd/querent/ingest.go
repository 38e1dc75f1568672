// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/querent-dev/querent/internal/graph/sparqlhttp"
	"github.com/querent-dev/querent/internal/ingest"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Download card data and load it into the graph",
		Long:  "Fetch the latest card corpus, convert it to Turtle, and replace the graph's contents. Downloads are skipped when the staged corpus already matches the published version.",
		RunE:  runIngest,
	}

	cmd.Flags().String("data-dir", "", "override the staging directory for downloaded card data")
	cmd.Flags().Bool("skip-download", false, "reuse the staged corpus instead of checking for a newer one")
	cmd.Flags().Bool("skip-load", false, "stop after writing the Turtle file, do not touch the graph")

	return cmd
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Ingest.DataDir = dataDir
	}

	loader, err := sparqlhttp.New(sparqlhttp.Config{
		Endpoint: cfg.Graph.Endpoint,
		Dataset:  cfg.Graph.Dataset,
		Timeout:  cfg.Graph.Timeout,
	})
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeCLISetupFailure, "creating graph client")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	skipDownload, _ := cmd.Flags().GetBool("skip-download")
	skipLoad, _ := cmd.Flags().GetBool("skip-load")

	pipeline := ingest.NewPipeline(cfg.Ingest.DataDir, loader, slog.Default())
	cards, err := pipeline.Run(ctx, ingest.RunOptions{SkipDownload: skipDownload, SkipLoad: skipLoad})
	if err != nil {
		return err
	}

	if skipLoad {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Transformed %d cards; load skipped.", cards)))
		return nil
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Loaded %d cards into dataset %q.", cards, cfg.Graph.Dataset)))
	return nil
}

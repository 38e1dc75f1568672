// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

// Package ingest builds the card graph: it downloads the MTGJSON card
// corpus, transforms it to Turtle, and loads the result into the triple
// store.
package ingest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	qerr "github.com/querent-dev/querent/pkg/errors"
)

const (
	// MetaURL serves the corpus version manifest.
	MetaURL = "https://mtgjson.com/api/v5/Meta.json"
	// AllPrintingsURL serves the full card corpus.
	AllPrintingsURL = "https://mtgjson.com/api/v5/AllPrintings.json"

	metaFile         = "Meta.json"
	allPrintingsFile = "AllPrintings.json"
)

// Extractor downloads the card corpus into a staging directory, skipping
// the large corpus download when the already-staged version is current.
type Extractor struct {
	dataDir string
	client  *http.Client
	log     *slog.Logger

	// overridable for tests
	metaURL         string
	allPrintingsURL string
}

// NewExtractor creates an Extractor staging into dataDir.
func NewExtractor(dataDir string, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{
		dataDir:         dataDir,
		client:          http.DefaultClient,
		log:             log,
		metaURL:         MetaURL,
		allPrintingsURL: AllPrintingsURL,
	}
}

type metaDocument struct {
	Data struct {
		Version string `json:"version"`
		Date    string `json:"date"`
	} `json:"data"`
}

// Extract stages Meta.json and AllPrintings.json under the data directory
// and returns the path of the staged corpus. The corpus download is skipped
// when the staged version already matches the upstream manifest.
func (e *Extractor) Extract(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.dataDir, 0o755); err != nil {
		return "", qerr.Wrapf(err, qerr.CodeIngestDownloadFailure, "creating data directory %s", e.dataDir)
	}

	staged := e.stagedVersion()

	metaPath := filepath.Join(e.dataDir, metaFile)
	if err := e.download(ctx, e.metaURL, metaPath); err != nil {
		return "", err
	}

	var meta metaDocument
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return "", qerr.Wrapf(err, qerr.CodeIngestDownloadFailure, "reading %s", metaPath)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return "", qerr.Wrapf(err, qerr.CodeIngestDownloadFailure, "parsing %s", metaPath)
	}

	corpusPath := filepath.Join(e.dataDir, allPrintingsFile)
	if staged != "" && staged == meta.Data.Version {
		if _, err := os.Stat(corpusPath); err == nil {
			e.log.Info("card corpus is current, skipping download", "version", staged)
			return corpusPath, nil
		}
	}

	e.log.Info("downloading card corpus", "version", meta.Data.Version)
	if err := e.download(ctx, e.allPrintingsURL, corpusPath); err != nil {
		return "", err
	}

	return corpusPath, nil
}

// stagedVersion returns the version of the already-staged manifest, or "".
func (e *Extractor) stagedVersion() string {
	raw, err := os.ReadFile(filepath.Join(e.dataDir, metaFile))
	if err != nil {
		return ""
	}
	var meta metaDocument
	if err := json.Unmarshal(raw, &meta); err != nil {
		return ""
	}
	return meta.Data.Version
}

// download streams url to path via a temp file so a partial download never
// clobbers a good staged copy.
func (e *Extractor) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeIngestDownloadFailure, "building request for %s", url)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeIngestDownloadFailure, "fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return qerr.Errorf(qerr.CodeIngestDownloadFailure, "fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeIngestDownloadFailure, "creating temp file for %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return qerr.Wrapf(err, qerr.CodeIngestDownloadFailure, "writing %s", path)
	}
	if err := tmp.Close(); err != nil {
		return qerr.Wrapf(err, qerr.CodeIngestDownloadFailure, "closing %s", tmp.Name())
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return qerr.Wrapf(err, qerr.CodeIngestDownloadFailure, "staging %s", path)
	}
	return nil
}

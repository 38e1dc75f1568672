// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/querent-dev/querent/internal/graph"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

// turtleFile is the staged Turtle output inside the data directory.
const turtleFile = "mtg-rdf.ttl"

// Pipeline runs the full ingestion: download the corpus, transform it to
// Turtle, and load the result into the triple store.
type Pipeline struct {
	extractor   *Extractor
	transformer *Transformer
	loader      *Loader
	dataDir     string
	log         *slog.Logger
}

// NewPipeline wires a pipeline staging into dataDir and loading through g.
func NewPipeline(dataDir string, g graph.Loader, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		extractor:   NewExtractor(dataDir, log),
		transformer: NewTransformer(),
		loader:      NewLoader(g),
		dataDir:     dataDir,
		log:         log,
	}
}

// RunOptions selects which pipeline stages execute.
type RunOptions struct {
	// SkipDownload reuses the staged corpus without consulting the upstream
	// manifest. Fails when nothing is staged yet.
	SkipDownload bool
	// SkipLoad stops after writing the Turtle file.
	SkipLoad bool
}

// Run executes the pipeline and returns the number of cards transformed.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (int, error) {
	var corpusPath string
	if opts.SkipDownload {
		corpusPath = filepath.Join(p.dataDir, allPrintingsFile)
		if _, err := os.Stat(corpusPath); err != nil {
			return 0, qerr.Errorf(qerr.CodeIngestDownloadFailure, "no staged corpus at %s", corpusPath)
		}
		p.log.Info("reusing staged card corpus", "corpus", corpusPath)
	} else {
		p.log.Info("extracting card corpus", "data_dir", p.dataDir)
		staged, err := p.extractor.Extract(ctx)
		if err != nil {
			return 0, err
		}
		corpusPath = staged
	}

	turtlePath := filepath.Join(p.dataDir, turtleFile)
	p.log.Info("transforming corpus to turtle", "corpus", corpusPath, "output", turtlePath)
	count, err := p.transformer.TransformFile(corpusPath, turtlePath)
	if err != nil {
		return 0, err
	}
	p.log.Info("transform complete", "cards", count)

	if opts.SkipLoad {
		p.log.Info("load skipped", "turtle", turtlePath)
		return count, nil
	}

	p.log.Info("loading turtle into store", "path", turtlePath)
	if err := p.loader.LoadFile(ctx, turtlePath); err != nil {
		return 0, err
	}

	p.log.Info("ingestion complete", "cards", count)
	return count, nil
}

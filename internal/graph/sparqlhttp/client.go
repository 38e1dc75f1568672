// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

// Package sparqlhttp implements graph.Store against a SPARQL 1.1 Protocol
// endpoint such as Apache Jena Fuseki.
package sparqlhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/querent-dev/querent/internal/graph"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

// Compile-time interface checks.
var (
	_ graph.Store  = (*Client)(nil)
	_ graph.Loader = (*Client)(nil)
)

const defaultTimeout = 30 * time.Second

// Config holds SPARQL endpoint configuration.
type Config struct {
	// Endpoint is the service base URL, e.g. "http://localhost:3030".
	Endpoint string
	// Dataset is the dataset name the queries run against, e.g. "mtg".
	Dataset string
	// Timeout bounds each round trip. Zero means defaultTimeout.
	Timeout time.Duration
}

// Client talks to one dataset on a SPARQL endpoint.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. Returns an error if the endpoint or dataset is missing.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, qerr.New(qerr.CodeConfigValidateInvalidValue, "sparql: endpoint is required")
	}
	if cfg.Dataset == "" {
		return nil, qerr.New(qerr.CodeConfigValidateInvalidValue, "sparql: dataset is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// resultsDocument is the application/sparql-results+json envelope.
type resultsDocument struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]resultTerm `json:"bindings"`
	} `json:"results"`
}

type resultTerm struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Query runs a SPARQL query via the protocol's form-encoded POST binding.
// HTTP 400 from the endpoint means the query itself was rejected and maps
// to CodeGraphQueryFault with the endpoint's message preserved.
func (c *Client) Query(ctx context.Context, queryText string) (*graph.BindingSet, error) {
	form := url.Values{"query": {queryText}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL("sparql"), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeGraphTransportFailure, "building query request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeGraphTransportFailure, "querying %s", c.cfg.Dataset)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeGraphTransportFailure, "reading query response")
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return nil, qerr.New(qerr.CodeGraphQueryFault, strings.TrimSpace(string(body)), qerr.FieldDataset(c.cfg.Dataset))
	case resp.StatusCode != http.StatusOK:
		return nil, qerr.New(qerr.CodeGraphTransportFailure,
			fmt.Sprintf("endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			qerr.FieldDataset(c.cfg.Dataset))
	}

	var doc resultsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeGraphResponseInvalid, "decoding sparql results")
	}

	set := &graph.BindingSet{Vars: doc.Head.Vars}
	for _, row := range doc.Results.Bindings {
		binding := make(graph.Binding, len(row))
		for name, term := range row {
			binding[name] = term.Value
		}
		set.Rows = append(set.Rows, binding)
	}

	return set, nil
}

// Update runs a SPARQL 1.1 update statement.
func (c *Client) Update(ctx context.Context, updateText string) error {
	form := url.Values{"update": {updateText}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL("update"), strings.NewReader(form.Encode()))
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeGraphUpdateFailure, "building update request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.expectSuccess(req, qerr.CodeGraphUpdateFailure)
}

// LoadTurtle replaces the default graph via the Graph Store Protocol.
func (c *Client) LoadTurtle(ctx context.Context, turtle []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.serviceURL("data")+"?default", bytes.NewReader(turtle))
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeGraphLoadFailure, "building load request")
	}
	req.Header.Set("Content-Type", "text/turtle")

	return c.expectSuccess(req, qerr.CodeGraphLoadFailure)
}

// Ping checks endpoint liveness against the dataset query service.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Query(ctx, "ASK {}")
	return err
}

func (c *Client) expectSuccess(req *http.Request, code qerr.Code) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return qerr.Wrapf(err, code, "calling %s", req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return qerr.New(code,
			fmt.Sprintf("endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			qerr.FieldDataset(c.cfg.Dataset))
	}

	return nil
}

func (c *Client) serviceURL(service string) string {
	return strings.TrimRight(c.cfg.Endpoint, "/") + "/" + c.cfg.Dataset + "/" + service
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"context"
	"fmt"

	"github.com/querent-dev/querent/internal/graph"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

const (
	// DefaultPredicateCap bounds the distinct predicates sampled from the store.
	DefaultPredicateCap = 100
	// DefaultSampleCap bounds the example cards sampled from the store.
	DefaultSampleCap = 5
	// DefaultSampleFilter is the fixed illustrative name filter used to pull
	// example cards for the prompt.
	DefaultSampleFilter = "counterspell"
)

// sampleSchema draws the bounded vocabulary sample that grounds generation
// prompts. Zero matches for the illustrative filter is valid; an empty
// example set simply leaves the prompt without sample cards.
func sampleSchema(ctx context.Context, store graph.Store, predicateCap, sampleCap int, filter string) (*SchemaDigest, error) {
	predQuery := fmt.Sprintf(`SELECT DISTINCT ?predicate WHERE {
    ?s ?predicate ?o
} LIMIT %d`, predicateCap)

	preds, err := store.Query(ctx, predQuery)
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeAskSchemaSampleFailure, "sampling predicates")
	}

	sampleQuery := fmt.Sprintf(`PREFIX mtg: <https://querent.dev/mtg/>
SELECT ?card ?name WHERE {
    ?card mtg:name ?name .
    FILTER(CONTAINS(LCASE(?name), %q))
} LIMIT %d`, filter, sampleCap)

	samples, err := store.Query(ctx, sampleQuery)
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeAskSchemaSampleFailure, "sampling example cards")
	}

	digest := &SchemaDigest{}
	for _, row := range preds.Rows {
		if p := row["predicate"]; p != "" {
			digest.Predicates = append(digest.Predicates, p)
		}
	}
	for _, row := range samples.Rows {
		if n := row["name"]; n != "" {
			digest.SampleCards = append(digest.SampleCards, n)
		}
	}

	return digest, nil
}

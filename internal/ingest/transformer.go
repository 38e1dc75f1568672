// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	qerr "github.com/querent-dev/querent/pkg/errors"
)

// Namespace is the IRI prefix for all card predicates and card subjects.
const Namespace = "https://querent.dev/mtg/"

// allPrintings mirrors the corpus layout: data maps set codes to sets.
type allPrintings struct {
	Data map[string]printingSet `json:"data"`
}

type printingSet struct {
	Name  string `json:"name"`
	Cards []card `json:"cards"`
}

type card struct {
	UUID          string   `json:"uuid"`
	Name          string   `json:"name"`
	Artist        string   `json:"artist"`
	Types         []string `json:"types"`
	Subtypes      []string `json:"subtypes"`
	Supertypes    []string `json:"supertypes"`
	Colors        []string `json:"colors"`
	ColorIdentity []string `json:"colorIdentity"`
	Rarity        string   `json:"rarity"`
	ManaCost      string   `json:"manaCost"`
	ManaValue     float64  `json:"manaValue"`
	Text          string   `json:"text"`
	OriginalText  string   `json:"originalText"`
	Power         string   `json:"power"`
	Toughness     string   `json:"toughness"`
	Loyalty       string   `json:"loyalty"`
	Keywords      []string `json:"keywords"`
	SetCode       string   `json:"setCode"`
	Number        string   `json:"number"`
}

// Transformer renders the corpus as Turtle under the querent namespace.
// Each printing becomes one subject keyed by its corpus UUID.
type Transformer struct{}

// NewTransformer creates a Transformer.
func NewTransformer() *Transformer {
	return &Transformer{}
}

// TransformFile reads a staged AllPrintings.json and writes Turtle to
// outPath, returning the number of cards written.
func (t *Transformer) TransformFile(corpusPath, outPath string) (int, error) {
	in, err := os.Open(corpusPath)
	if err != nil {
		return 0, qerr.Wrapf(err, qerr.CodeIngestTransformFailure, "opening corpus %s", corpusPath)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, qerr.Wrapf(err, qerr.CodeIngestTransformFailure, "creating %s", outPath)
	}

	count, err := t.Transform(in, out)
	if err != nil {
		out.Close()
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, qerr.Wrapf(err, qerr.CodeIngestTransformFailure, "closing %s", outPath)
	}
	return count, nil
}

// Transform decodes the corpus from r and writes Turtle to w.
func (t *Transformer) Transform(r io.Reader, w io.Writer) (int, error) {
	var corpus allPrintings
	if err := json.NewDecoder(r).Decode(&corpus); err != nil {
		return 0, qerr.Wrapf(err, qerr.CodeIngestTransformFailure, "decoding corpus")
	}

	out := bufio.NewWriter(w)
	fmt.Fprintf(out, "@prefix mtg: <%s> .\n\n", Namespace)

	count := 0
	for _, set := range corpus.Data {
		for _, c := range set.Cards {
			if c.UUID == "" || c.Name == "" {
				continue
			}
			writeCard(out, set.Name, c)
			count++
		}
	}

	if err := out.Flush(); err != nil {
		return 0, qerr.Wrapf(err, qerr.CodeIngestTransformFailure, "writing turtle")
	}
	return count, nil
}

func writeCard(w io.Writer, setName string, c card) {
	var props []string

	add := func(predicate, value string) {
		if value == "" {
			return
		}
		props = append(props, fmt.Sprintf("    mtg:%s %s", predicate, turtleString(value)))
	}
	addAll := func(predicate string, values []string) {
		for _, v := range values {
			add(predicate, v)
		}
	}

	add("name", c.Name)
	add("artist", c.Artist)
	addAll("card_type", c.Types)
	addAll("subtype", c.Subtypes)
	addAll("supertype", c.Supertypes)
	addAll("color", c.Colors)
	addAll("color_identity", c.ColorIdentity)
	add("rarity", c.Rarity)
	add("mana_cost", c.ManaCost)
	props = append(props, fmt.Sprintf("    mtg:converted_mana_cost %g", c.ManaValue))
	add("oracle_text", c.Text)
	add("rules_text", c.OriginalText)
	add("power", c.Power)
	add("toughness", c.Toughness)
	add("loyalty", c.Loyalty)
	addAll("ability_keyword", c.Keywords)
	add("set_code", c.SetCode)
	add("card_set", setName)
	add("collector_number", c.Number)

	fmt.Fprintf(w, "<%scard/%s>\n%s .\n\n", Namespace, c.UUID, strings.Join(props, " ;\n"))
}

// turtleString renders a Turtle string literal with the required escapes.
func turtleString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

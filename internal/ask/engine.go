// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package ask

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/querent-dev/querent/internal/graph"
	"github.com/querent-dev/querent/internal/provider"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

const (
	// DefaultMaxRetries bounds the attempts per session.
	DefaultMaxRetries = 3
	// DefaultComposeRowCap bounds the row prefix shown to the composer.
	DefaultComposeRowCap = 20
	// DefaultValidateRowCap bounds the row prefix shown to the validator.
	DefaultValidateRowCap = 10
)

// exhaustedAnswer is the terminal answer text when every attempt failed.
const exhaustedAnswer = "Unable to find satisfactory results after multiple attempts."

// Hooks provides optional per-stage test callbacks, each invoked with the
// zero-based attempt index.
type Hooks struct {
	OnGenerate func(attempt int)
	OnExecute  func(attempt int)
	OnCompose  func(attempt int)
	OnValidate func(attempt int)
}

// Config holds Engine dependencies and tuning caps. Store and Provider are
// required; everything else defaults.
type Config struct {
	Store    graph.Store
	Provider provider.Provider

	MaxRetries     int
	ComposeRowCap  int
	ValidateRowCap int
	PredicateCap   int
	SampleCap      int
	SampleFilter   string

	Logger *slog.Logger
	Hooks  *Hooks
}

// Engine drives one attempt-bounded session per question. It is safe for
// concurrent use: sessions share only the read-only schema digest and the
// store handle.
type Engine struct {
	store    graph.Store
	provider provider.Provider
	cfg      Config
	log      *slog.Logger

	schemaOnce sync.Once
	schema     *SchemaDigest
	schemaErr  error
}

// New creates an Engine, applying defaults for unset caps.
func New(cfg Config) (*Engine, error) {
	if cfg.Store == nil {
		return nil, qerr.New(qerr.CodeAskInputInvalid, "ask: store is required")
	}
	if cfg.Provider == nil {
		return nil, qerr.New(qerr.CodeAskInputInvalid, "ask: provider is required")
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.ComposeRowCap <= 0 {
		cfg.ComposeRowCap = DefaultComposeRowCap
	}
	if cfg.ValidateRowCap <= 0 {
		cfg.ValidateRowCap = DefaultValidateRowCap
	}
	if cfg.PredicateCap <= 0 {
		cfg.PredicateCap = DefaultPredicateCap
	}
	if cfg.SampleCap <= 0 {
		cfg.SampleCap = DefaultSampleCap
	}
	if cfg.SampleFilter == "" {
		cfg.SampleFilter = DefaultSampleFilter
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		store:    cfg.Store,
		provider: cfg.Provider,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Schema returns the cached schema digest, sampling it on first use.
func (e *Engine) Schema(ctx context.Context) (*SchemaDigest, error) {
	e.schemaOnce.Do(func() {
		e.schema, e.schemaErr = sampleSchema(ctx, e.store, e.cfg.PredicateCap, e.cfg.SampleCap, e.cfg.SampleFilter)
	})
	return e.schema, e.schemaErr
}

// Answer runs the full loop for one question. It returns an error only for
// conditions the loop cannot recover from — a provider transport fault or a
// schema sampling failure; query faults, empty results, generation misses
// and unsatisfactory verdicts are consumed by the retry machinery. An
// exhausted session is a non-error Outcome with Success=false carrying
// every recorded attempt.
func (e *Engine) Answer(ctx context.Context, question string) (*Outcome, error) {
	if question == "" {
		return nil, qerr.New(qerr.CodeAskInputInvalid, "ask: question is empty")
	}

	digest, err := e.Schema(ctx)
	if err != nil {
		return nil, err
	}

	sessionID := uuid.New().String()
	log := e.log.With("session_id", sessionID)

	outcome := &Outcome{
		SessionID: sessionID,
		Question:  question,
	}

	var history []provider.Message

	for i := 0; i < e.cfg.MaxRetries; i++ {
		contextText := buildContext(question, outcome.Attempts)

		e.fire(e.hooks().OnGenerate, i)
		call, err := generateQuery(ctx, e.provider, digest, history, contextText, question)
		if err != nil {
			return nil, qerr.With(err, qerr.FieldSessionID(sessionID), qerr.FieldAttempt(i+1))
		}

		attempt := Attempt{}
		if call == nil {
			// Generation miss: recorded as a no-result attempt, never thrown.
			attempt.Rationale = "no query generated"
			log.Warn("model declined to generate a query", "attempt", i+1)
		} else {
			attempt.Query = call.Query
			attempt.Rationale = call.Reasoning

			e.fire(e.hooks().OnExecute, i)
			attempt.Execution = executeQuery(ctx, e.store, call.Query)
			log.Info("executed query",
				"attempt", i+1,
				"rows", attempt.Execution.RowCount,
				"failed", attempt.Execution.Failed,
			)
		}

		if attempt.Execution.HasRows() {
			e.fire(e.hooks().OnCompose, i)
			answer, err := composeAnswer(ctx, e.provider, question, attempt.Query, attempt.Execution, e.cfg.ComposeRowCap)
			if err != nil {
				return nil, qerr.With(err, qerr.FieldSessionID(sessionID), qerr.FieldAttempt(i+1))
			}
			attempt.Answer = answer

			e.fire(e.hooks().OnValidate, i)
			verdict, err := validateAnswer(ctx, e.provider, question, attempt.Query, attempt.Execution, answer, e.cfg.ValidateRowCap)
			if err != nil {
				return nil, qerr.With(err, qerr.FieldSessionID(sessionID), qerr.FieldAttempt(i+1))
			}
			attempt.Verdict = &verdict

			if verdict.Reason == ReasonValidationUnavailable {
				log.Warn("validator payload unparseable, defaulting to satisfactory", "attempt", i+1)
			}

			outcome.Attempts = append(outcome.Attempts, attempt)

			if verdict.Satisfactory {
				outcome.Success = true
				outcome.Answer = answer
				log.Info("answer validated as satisfactory", "attempts", i+1)
				return outcome, nil
			}

			log.Info("answer not satisfactory", "attempt", i+1, "reason", verdict.Reason)
			if i < e.cfg.MaxRetries-1 {
				history = appendValidationFeedback(history, attempt)
			}
			continue
		}

		// Failed execution, zero rows, or generation miss.
		outcome.Attempts = append(outcome.Attempts, attempt)
		if i < e.cfg.MaxRetries-1 {
			history = appendNoResultFeedback(history, attempt)
		}
	}

	outcome.Answer = exhaustedAnswer
	log.Info("attempts exhausted", "attempts", len(outcome.Attempts))
	return outcome, nil
}

func (e *Engine) hooks() Hooks {
	if e.cfg.Hooks == nil {
		return Hooks{}
	}
	return *e.cfg.Hooks
}

func (e *Engine) fire(fn func(int), attempt int) {
	if fn != nil {
		fn(attempt)
	}
}

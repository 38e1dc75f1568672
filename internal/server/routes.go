// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/querent-dev/querent/internal/store"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
}

func (s *Server) registerRoutes() {
	// Ask endpoint
	huma.Register(s.api, huma.Operation{
		OperationID: "ask",
		Method:      http.MethodPost,
		Path:        "/api/v1/ask",
		Summary:     "Answer a question about the card graph",
		Tags:        []string{"ask"},
	}, s.handleAsk)

	// History endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/api/v1/history",
		Summary:     "List past question sessions",
		Tags:        []string{"history"},
	}, s.handleListSessions)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/v1/history/{id}",
		Summary:     "Get a session with its full attempt trajectory",
		Tags:        []string{"history"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-session",
		Method:      http.MethodDelete,
		Path:        "/api/v1/history/{id}",
		Summary:     "Delete a session",
		Tags:        []string{"history"},
	}, s.handleDeleteSession)
}

// --- Request/Response types for huma ---

// AttemptDetail is one loop iteration as returned by the API.
type AttemptDetail struct {
	Ordinal      int    `json:"ordinal"`
	Query        string `json:"query,omitempty"`
	Rationale    string `json:"rationale,omitempty"`
	Failed       bool   `json:"failed"`
	Error        string `json:"error,omitempty"`
	RowCount     int    `json:"row_count"`
	Answer       string `json:"answer,omitempty"`
	Validated    bool   `json:"validated"`
	Satisfactory bool   `json:"satisfactory"`
	Reason       string `json:"reason,omitempty"`
}

// SessionSummary is a session without its attempts, for listings.
type SessionSummary struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Success   bool      `json:"success"`
	Answer    string    `json:"answer,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionDetail is a session with its full attempt trajectory.
type SessionDetail struct {
	SessionSummary
	Attempts []AttemptDetail `json:"attempts"`
}

type askInput struct {
	Body struct {
		Question string `json:"question" minLength:"1" doc:"Natural-language question about the card graph"`
	}
}
type askOutput struct {
	Body struct {
		SessionID string `json:"session_id" doc:"Identifier of the recorded session"`
		Question  string `json:"question"`
		Success   bool   `json:"success" doc:"Whether a validated answer was produced"`
		Answer    string `json:"answer,omitempty"`
		Query     string `json:"query,omitempty" doc:"SPARQL query behind the final attempt"`
		Attempts  int    `json:"attempts" doc:"Number of loop iterations consumed"`
	}
}

type listSessionsInput struct {
	Limit  int `query:"limit" minimum:"0" doc:"Maximum sessions to return (default 20)"`
	Offset int `query:"offset" minimum:"0" doc:"Sessions to skip, newest first"`
}
type listSessionsOutput struct {
	Body struct {
		Sessions []SessionSummary `json:"sessions"`
	}
}

type sessionIDInput struct {
	ID string `path:"id"`
}
type getSessionOutput struct {
	Body SessionDetail
}

type deleteSessionOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

// --- Handlers ---

func (s *Server) handleAsk(ctx context.Context, input *askInput) (*askOutput, error) {
	if s.services.Asker == nil {
		return nil, huma.Error503ServiceUnavailable("question answering not configured")
	}

	outcome, err := s.services.Asker.Answer(ctx, input.Body.Question)
	if err != nil {
		return nil, humaError("answering question", err)
	}

	if s.services.History != nil {
		if err := s.services.History.SaveSession(ctx, store.FromOutcome(outcome)); err != nil {
			// The answer is already in hand; a persistence fault must not
			// discard it.
			s.services.logger().Warn("saving session", "session_id", outcome.SessionID, "error", err)
		}
	}

	out := &askOutput{}
	out.Body.SessionID = outcome.SessionID
	out.Body.Question = outcome.Question
	out.Body.Success = outcome.Success
	out.Body.Answer = outcome.Answer
	out.Body.Query = outcome.FinalQuery()
	out.Body.Attempts = outcome.AttemptCount()
	return out, nil
}

func (s *Server) handleListSessions(ctx context.Context, input *listSessionsInput) (*listSessionsOutput, error) {
	if s.services.History == nil {
		return nil, huma.Error503ServiceUnavailable("history not configured")
	}

	limit := input.Limit
	if limit == 0 {
		limit = 20
	}
	sessions, err := s.services.History.ListSessions(ctx, store.ListOpts{Limit: limit, Offset: input.Offset})
	if err != nil {
		return nil, huma.Error500InternalServerError("listing sessions", err)
	}

	out := &listSessionsOutput{}
	out.Body.Sessions = make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		out.Body.Sessions = append(out.Body.Sessions, summarize(session))
	}
	return out, nil
}

func (s *Server) handleGetSession(ctx context.Context, input *sessionIDInput) (*getSessionOutput, error) {
	if s.services.History == nil {
		return nil, huma.Error503ServiceUnavailable("history not configured")
	}

	session, err := s.services.History.GetSession(ctx, input.ID)
	if err != nil {
		if qerr.IsNotFound(err) {
			return nil, huma.Error404NotFound(fmt.Sprintf("session %q not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("loading session", err)
	}

	detail := SessionDetail{SessionSummary: summarize(session)}
	detail.Attempts = make([]AttemptDetail, 0, len(session.Attempts))
	for _, a := range session.Attempts {
		detail.Attempts = append(detail.Attempts, AttemptDetail{
			Ordinal:      a.Ordinal,
			Query:        a.Query,
			Rationale:    a.Rationale,
			Failed:       a.Failed,
			Error:        a.Error,
			RowCount:     a.RowCount,
			Answer:       a.Answer,
			Validated:    a.Validated,
			Satisfactory: a.Satisfactory,
			Reason:       a.Reason,
		})
	}
	return &getSessionOutput{Body: detail}, nil
}

func (s *Server) handleDeleteSession(ctx context.Context, input *sessionIDInput) (*deleteSessionOutput, error) {
	if s.services.History == nil {
		return nil, huma.Error503ServiceUnavailable("history not configured")
	}

	if err := s.services.History.DeleteSession(ctx, input.ID); err != nil {
		if qerr.IsNotFound(err) {
			return nil, huma.Error404NotFound(fmt.Sprintf("session %q not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("deleting session", err)
	}

	out := &deleteSessionOutput{}
	out.Body.Status = "deleted"
	return out, nil
}

func summarize(session *store.Session) SessionSummary {
	return SessionSummary{
		ID:        session.ID,
		Question:  session.Question,
		Success:   session.Success,
		Answer:    session.Answer,
		CreatedAt: session.CreatedAt,
	}
}

// humaError maps domain error codes onto HTTP status replies.
func humaError(msg string, err error) error {
	switch qerr.HTTPStatus(err) {
	case http.StatusNotFound:
		return huma.Error404NotFound(msg, err)
	case http.StatusBadRequest:
		return huma.Error400BadRequest(msg, err)
	case http.StatusBadGateway:
		return huma.Error502BadGateway(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}

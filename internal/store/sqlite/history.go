// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Querent Contributors

// Package sqlite implements the session history store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/querent-dev/querent/internal/store"
	qerr "github.com/querent-dev/querent/pkg/errors"
)

// Compile-time interface check.
var _ store.SessionStore = (*HistoryStore)(nil)

// HistoryStore implements store.SessionStore backed by SQLite.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore opens (or creates) a SQLite database at dbPath and
// initialises the sessions and attempts tables.
func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "opening sqlite db")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "pinging sqlite db")
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "migrating sqlite db")
	}

	return &HistoryStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	question   TEXT NOT NULL,
	success    INTEGER NOT NULL,
	answer     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);

CREATE TABLE IF NOT EXISTS attempts (
	session_id   TEXT NOT NULL,
	ordinal      INTEGER NOT NULL,
	query        TEXT NOT NULL DEFAULT '',
	rationale    TEXT NOT NULL DEFAULT '',
	failed       INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	row_count    INTEGER NOT NULL DEFAULT 0,
	answer       TEXT NOT NULL DEFAULT '',
	validated    INTEGER NOT NULL DEFAULT 0,
	satisfactory INTEGER NOT NULL DEFAULT 0,
	reason       TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (session_id, ordinal),
	FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// SaveSession writes the session and all its attempts in one transaction.
func (s *HistoryStore) SaveSession(ctx context.Context, session *store.Session) error {
	if session.ID == "" {
		return qerr.New(qerr.CodeStoreInvalidInput, "store: session id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, question, success, answer, created_at) VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.Question,
		boolToInt(session.Success),
		session.Answer,
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "inserting session %s", session.ID)
	}

	const q = `INSERT INTO attempts (session_id, ordinal, query, rationale, failed, error, row_count, answer, validated, satisfactory, reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, a := range session.Attempts {
		_, err = tx.ExecContext(ctx, q,
			session.ID,
			a.Ordinal,
			a.Query,
			a.Rationale,
			boolToInt(a.Failed),
			a.Error,
			a.RowCount,
			a.Answer,
			boolToInt(a.Validated),
			boolToInt(a.Satisfactory),
			a.Reason,
		)
		if err != nil {
			return qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "inserting attempt %d of session %s", a.Ordinal, session.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "committing session %s", session.ID)
	}
	return nil
}

// GetSession returns one session with its attempts in ordinal order.
func (s *HistoryStore) GetSession(ctx context.Context, id string) (*store.Session, error) {
	var session store.Session
	var success int
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, question, success, answer, created_at FROM sessions WHERE id = ?`, id,
	).Scan(&session.ID, &session.Question, &success, &session.Answer, &createdAt)
	if err == sql.ErrNoRows {
		return nil, qerr.Errorf(qerr.CodeStoreRecordNotFound, "session %s not found", id)
	}
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "getting session %s", id)
	}

	session.Success = success != 0
	session.CreatedAt = parseTime(createdAt)

	attempts, err := s.loadAttempts(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Attempts = attempts

	return &session, nil
}

// ListSessions returns sessions newest-first without their attempts.
func (s *HistoryStore) ListSessions(ctx context.Context, opts store.ListOpts) ([]*store.Session, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, success, answer, created_at FROM sessions ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "listing sessions")
	}
	defer rows.Close()

	var sessions []*store.Session
	for rows.Next() {
		var session store.Session
		var success int
		var createdAt string
		if err := rows.Scan(&session.ID, &session.Question, &success, &session.Answer, &createdAt); err != nil {
			return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "scanning session row")
		}
		session.Success = success != 0
		session.CreatedAt = parseTime(createdAt)
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "iterating session rows")
	}

	return sessions, nil
}

// DeleteSession removes a session; its attempts cascade.
func (s *HistoryStore) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "deleting session %s", id)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "checking rows affected for session %s", id)
	}
	if rows == 0 {
		return qerr.Errorf(qerr.CodeStoreRecordNotFound, "session %s not found", id)
	}
	return nil
}

func (s *HistoryStore) loadAttempts(ctx context.Context, sessionID string) ([]store.Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ordinal, query, rationale, failed, error, row_count, answer, validated, satisfactory, reason
FROM attempts WHERE session_id = ? ORDER BY ordinal ASC`,
		sessionID,
	)
	if err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "loading attempts for session %s", sessionID)
	}
	defer rows.Close()

	var attempts []store.Attempt
	for rows.Next() {
		var a store.Attempt
		var failed, validated, satisfactory int
		if err := rows.Scan(
			&a.Ordinal,
			&a.Query,
			&a.Rationale,
			&failed,
			&a.Error,
			&a.RowCount,
			&a.Answer,
			&validated,
			&satisfactory,
			&a.Reason,
		); err != nil {
			return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "scanning attempt row")
		}
		a.Failed = failed != 0
		a.Validated = validated != 0
		a.Satisfactory = satisfactory != 0
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, qerr.Wrapf(err, qerr.CodeStoreDatabaseFailure, "iterating attempt rows")
	}

	return attempts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatTime serialises a time.Time to RFC3339 with nanosecond precision.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime deserialises a time string stored in the database.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

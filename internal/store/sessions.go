package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cameronkuperman/deepdive/internal/interview"
)

// SessionRepo persists interview sessions. The session document is stored
// as a JSON payload; id, status, and version are surfaced as columns for
// lookups and the optimistic write check.
type SessionRepo struct {
	db *sql.DB
}

var _ interview.SessionStore = (*SessionRepo)(nil)

// Create inserts a new session at version 1.
func (r *SessionRepo) Create(ctx context.Context, s *interview.Session) error {
	s.Version = 1
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, status, payload, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, string(s.Status), string(payload), s.Version, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get loads a session by ID. The returned session is the caller's private
// copy.
func (r *SessionRepo) Get(ctx context.Context, id string) (*interview.Session, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interview.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}

	var s interview.Session
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &s, nil
}

// Update writes a mutated session back, version-checked. A concurrent
// writer that bumped the version first wins; the loser gets
// ErrSessionBusy and must re-read.
func (r *SessionRepo) Update(ctx context.Context, s *interview.Session) error {
	expected := s.Version
	s.Version = expected + 1

	payload, err := json.Marshal(s)
	if err != nil {
		s.Version = expected
		return fmt.Errorf("marshal session: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, payload = ?, version = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		string(s.Status), string(payload), s.Version, s.UpdatedAt, s.ID, expected)
	if err != nil {
		s.Version = expected
		return fmt.Errorf("update session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		s.Version = expected
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		s.Version = expected
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM sessions WHERE id = ?`, s.ID).Scan(&exists); errors.Is(err, sql.ErrNoRows) {
			return interview.ErrSessionNotFound
		}
		return interview.ErrSessionBusy
	}
	return nil
}

// List returns all sessions, most recently updated first.
func (r *SessionRepo) List(ctx context.Context) ([]*interview.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM sessions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*interview.Session
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		var s interview.Session
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return nil, fmt.Errorf("unmarshal session: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

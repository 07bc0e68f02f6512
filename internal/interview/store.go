package interview

import "context"

// SessionStore is the repository for interview sessions. Implementations
// must be safe for concurrent use and must enforce optimistic
// concurrency: Update fails with ErrSessionBusy when the stored version
// differs from the session's Version, and increments the version on
// success. Sessions are never hard-deleted by the engine.
type SessionStore interface {
	// Create persists a new session. The session's Version is set to 1.
	Create(ctx context.Context, s *Session) error

	// Get loads a session by ID. Returns ErrSessionNotFound when absent.
	// Callers receive a private copy they may mutate freely.
	Get(ctx context.Context, id string) (*Session, error)

	// Update persists a mutated session, version-checked.
	Update(ctx context.Context, s *Session) error

	// List returns all sessions, most recently updated first.
	List(ctx context.Context) ([]*Session, error)
}

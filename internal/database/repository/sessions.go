package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

// SessionRepo handles the sessions table.
type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Current returns the most recent session, or nil when none is stored.
func (r *SessionRepo) Current(ctx context.Context) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, user_id, role, created_at FROM sessions ORDER BY created_at DESC, id DESC LIMIT 1`)
	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Role, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Save stores a new session row, replacing any previous identity.
func (r *SessionRepo) Save(ctx context.Context, userID, role string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO sessions(id, user_id, role, created_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP);
	`, uuid.NewString(), userID, role)
	return err
}

// EnsureDefault seeds a session row for first launches, using the configured
// fallback identity. Idempotent and safe to run on every startup; a real
// login flow would replace the row later.
func (r *SessionRepo) EnsureDefault(ctx context.Context, userID, role string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil
	}
	current, err := r.Current(ctx)
	if err != nil {
		return err
	}
	if current != nil {
		return nil
	}
	return r.Save(ctx, userID, role)
}

// Clear removes all stored sessions.
func (r *SessionRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions`)
	return err
}

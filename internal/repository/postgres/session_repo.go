package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mtgvault/mtgvault/internal/model"
)

// SessionRepo implements SessionRepository using PostgreSQL.
type SessionRepo struct{ db *DB }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

// Create records an issued session token.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `
INSERT INTO sessions (id, user_id)
VALUES ($1, $2)`
	_, err := r.db.Pool.Exec(ctx, q, s.ID, s.UserID)
	return mapErr(err)
}

// Delete revokes a session. Deleting an absent row is a no-op so logout
// stays idempotent.
func (r *SessionRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	const q = `DELETE FROM sessions WHERE id=$1 AND user_id=$2`
	_, err := r.db.Pool.Exec(ctx, q, id, userID)
	return mapErr(err)
}

// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mtgvault/mtgvault/internal/model"
)

// UserRepository provides access to durable account records.
type UserRepository interface {
	// Create inserts a new user; errs.ErrAlreadyExists on duplicate username.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// SessionRepository stores issued session tokens so they can be revoked.
type SessionRepository interface {
	// Create records an issued session.
	Create(ctx context.Context, s *model.Session) error
	// Delete revokes a session by its jti; deleting an absent session is not
	// an error (logout is idempotent).
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

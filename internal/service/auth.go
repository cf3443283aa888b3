// Package service contains application services: account directory,
// collection write coordination, and catalog synchronization.
package service

import (
	"fmt"
	"time"

	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/mtgvault/mtgvault/internal/crypto"
	"github.com/mtgvault/mtgvault/internal/errs"
	"github.com/mtgvault/mtgvault/internal/model"
	"github.com/mtgvault/mtgvault/internal/repository"
)

// AuthService defines account and session operations.
type AuthService interface {
	// Register creates a new account and issues a session token.
	Register(ctx context.Context, username, password, email string) (model.Identity, error)
	// Login verifies credentials and issues a new session token.
	Login(ctx context.Context, username, password string) (model.Identity, error)
	// Logout revokes a session token; revoking an invalid or already-revoked
	// token is a successful no-op.
	Logout(ctx context.Context, token string, userID uuid.UUID) (bool, error)
}

type AuthServiceImpl struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	signKey  []byte
	tokenTTL time.Duration
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, signKey []byte, tokenTTL time.Duration) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, sessions: sessions, signKey: signKey, tokenTTL: tokenTTL}
}

// Register creates an account with a per-user salt and Argon2id hash.
// A duplicate username surfaces as errs.ErrAlreadyExists with the existing
// account untouched.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password, email string) (model.Identity, error) {
	if username == "" || password == "" {
		return model.Identity{}, fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.Identity{}, err
	}
	salt, err := pkgcrypto.RandBytes(16)
	if err != nil {
		return model.Identity{}, err
	}

	u := &model.User{
		ID:       uid,
		Username: username,
		Email:    email,
		PwdHash:  pkgcrypto.HashPassword([]byte(password), salt),
		SaltAuth: salt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.Identity{}, err
	}

	token, err := s.issueToken(ctx, uid)
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{UserID: uid, Username: username, Token: token}, nil
}

// Login authenticates and issues a fresh session token. An unknown user and
// a wrong password are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (model.Identity, error) {
	if username == "" || password == "" {
		return model.Identity{}, fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		return model.Identity{}, errs.ErrUnauthorized
	}

	token, err := s.issueToken(ctx, u.ID)
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{UserID: u.ID, Username: u.Username, Token: token}, nil
}

// Logout deletes the session row behind the token's jti. Unparseable or
// expired tokens mean there is nothing left to revoke, which counts as
// success.
func (s *AuthServiceImpl) Logout(ctx context.Context, token string, userID uuid.UUID) (bool, error) {
	jti, ok := s.parseJTI(token)
	if !ok {
		return true, nil
	}
	if err := s.sessions.Delete(ctx, jti, userID); err != nil {
		return false, err
	}
	return true, nil
}

// issueToken records a session row and wraps its id in a signed JWT. The
// token carries its own expiry; the row makes it revocable before that.
func (s *AuthServiceImpl) issueToken(ctx context.Context, userID uuid.UUID) (string, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Create(ctx, &model.Session{ID: jti, UserID: userID}); err != nil {
		return "", err
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        jti.String(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

// parseJTI extracts the session id from a token, verifying the signature.
func (s *AuthServiceImpl) parseJTI(token string) (uuid.UUID, bool) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.signKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return uuid.Nil, false
	}
	jti, err := uuid.FromString(claims.ID)
	if err != nil {
		return uuid.Nil, false
	}
	return jti, true
}

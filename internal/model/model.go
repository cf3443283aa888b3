// Package model defines domain entities used by services and repositories.
package model

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid/v5"
)

// Card is a single printing of a card within one edition. The identity is
// (Name, Edition); everything else is carried opaquely from the bulk dataset.
type Card struct {
	Name    string          `json:"name"`
	Edition string          `json:"edition"`
	Attrs   json.RawMessage `json:"attrs,omitempty"` // raw dataset object, not interpreted
}

// Edition is one card set as published by the dataset source.
type Edition struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	ReleasedAt string `json:"released_at,omitempty"`
}

// Suggestion is a (card name, edition) pair returned by prefix search.
// Results are ordered by name, ties broken by edition code.
type Suggestion struct {
	Name    string `json:"name"`
	Edition string `json:"edition"`
}

// DropdownItem is the shape the UI expects for select-box options.
type DropdownItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CollectionEntry is one card line in an owner's collection. Units is the
// authoritative count from the durable store; it never goes negative.
type CollectionEntry struct {
	Owner      string `json:"owner"`
	Collection string `json:"collection"`
	Card       string `json:"card"`
	Edition    string `json:"edition"`
	Units      int64  `json:"units"`
}

// User represents an account stored on the server.
type User struct {
	ID        uuid.UUID // PK
	Username  string    // unique
	Email     string
	PwdHash   []byte // Argon2id(password, SaltAuth)
	SaltAuth  []byte // per-user auth salt
	CreatedAt time.Time
}

// Session is a server-side record of an issued token, keyed by the token's
// jti. Deleting the row revokes the token.
type Session struct {
	ID        uuid.UUID // jti
	UserID    uuid.UUID
	CreatedAt time.Time
}

// Identity is what auth operations hand back to the routing layer.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Token    string
}

// WriteStatus classifies the result of a dual-store mutation.
type WriteStatus int

const (
	// WriteApplied means both the durable store and the cache projection
	// were updated.
	WriteApplied WriteStatus = iota

	// WritePartial means the durable store was updated but the projection
	// write failed; the cache is stale until reconciled.
	WritePartial
)

// WriteOutcome reports how far a collection mutation got. A partial outcome
// is not an error to the caller, but it must stay observable so drift can
// be repaired.
type WriteOutcome struct {
	Status WriteStatus
	Units  int64  // resulting unit count after an AddCard, 0 otherwise
	Reason string // short cause for a partial outcome
}

// Partial reports whether the projection write was lost.
func (o WriteOutcome) Partial() bool { return o.Status == WritePartial }

package repository

import (
	"context"

	"github.com/mtgvault/mtgvault/internal/model"
)

// CollectionRepository is the durable, authoritative store of per-owner
// collections and their entries.
type CollectionRepository interface {
	// CreateCollection registers a named collection for an owner;
	// errs.ErrAlreadyExists if the owner already has one by that name.
	CreateCollection(ctx context.Context, owner, collection string) error

	// ListCollections returns the owner's collection names, sorted.
	ListCollections(ctx context.Context, owner string) ([]string, error)

	// ListEntries returns all entries of one collection, sorted by card then
	// edition.
	ListEntries(ctx context.Context, owner, collection string) ([]model.CollectionEntry, error)

	// UpsertEntry atomically adds delta to the entry's unit count, creating
	// the entry (and the collection row) as needed, and returns the resulting
	// count. A delta that would drive the count negative fails with
	// errs.ErrValidation and leaves the stored count unchanged.
	UpsertEntry(ctx context.Context, owner, collection, card, edition string, delta int64) (int64, error)
}

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mtgvault/mtgvault/internal/model"
)

// CollectionRepo implements CollectionRepository using PostgreSQL.
type CollectionRepo struct{ db *DB }

// NewCollectionRepo constructs a collection repository.
func NewCollectionRepo(db *DB) *CollectionRepo { return &CollectionRepo{db: db} }

// CreateCollection registers a named collection for an owner.
func (r *CollectionRepo) CreateCollection(ctx context.Context, owner, collection string) error {
	const q = `INSERT INTO collections (owner, name) VALUES ($1, $2)`
	_, err := r.db.Pool.Exec(ctx, q, owner, collection)
	return mapErr(err)
}

// ListCollections returns the owner's collection names.
func (r *CollectionRepo) ListCollections(ctx context.Context, owner string) ([]string, error) {
	const q = `SELECT name FROM collections WHERE owner=$1 ORDER BY name`
	rows, err := r.db.Pool.Query(ctx, q, owner)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, name)
	}
	return out, mapErr(rows.Err())
}

// ListEntries returns all entries of one collection.
func (r *CollectionRepo) ListEntries(ctx context.Context, owner, collection string) ([]model.CollectionEntry, error) {
	const q = `
SELECT card, edition, units
FROM collection_entries
WHERE owner=$1 AND collection=$2 AND units > 0
ORDER BY card, edition`
	rows, err := r.db.Pool.Query(ctx, q, owner, collection)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.CollectionEntry
	for rows.Next() {
		e := model.CollectionEntry{Owner: owner, Collection: collection}
		if err := rows.Scan(&e.Card, &e.Edition, &e.Units); err != nil {
			return nil, mapErr(err)
		}
		out = append(out, e)
	}
	return out, mapErr(rows.Err())
}

// UpsertEntry adds delta to the entry's unit count inside one transaction,
// creating the collection row and the entry as needed. The increment runs
// in SQL, so concurrent calls on the same entry serialize in the database
// instead of racing in application code; the units CHECK constraint turns
// a would-be-negative result into errs.ErrValidation with nothing applied.
func (r *CollectionRepo) UpsertEntry(
	ctx context.Context, owner, collection, card, edition string, delta int64,
) (units int64, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, mapErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = mapErr(e)
		}
	}()

	const ensure = `INSERT INTO collections (owner, name) VALUES ($1, $2) ON CONFLICT (owner, name) DO NOTHING`
	if _, err = tx.Exec(ctx, ensure, owner, collection); err != nil {
		return 0, mapErr(err)
	}

	const upsert = `
INSERT INTO collection_entries (owner, collection, card, edition, units)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (owner, collection, card, edition)
DO UPDATE SET units = collection_entries.units + EXCLUDED.units
RETURNING units`
	if err = tx.QueryRow(ctx, upsert, owner, collection, card, edition, delta).Scan(&units); err != nil {
		err = mapErr(err)
		return 0, err
	}
	return units, nil
}

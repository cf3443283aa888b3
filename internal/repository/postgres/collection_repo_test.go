package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mtgvault/mtgvault/internal/errs"
	"github.com/mtgvault/mtgvault/internal/model"
)

func TestCollectionRepo_CreateCollection(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCollectionRepo(db)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO collections \(owner, name\) VALUES \(\$1, \$2\)`).
		WithArgs("alice", "standard").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.CreateCollection(ctx, "alice", "standard"))

	mock.ExpectExec(`INSERT INTO collections \(owner, name\) VALUES \(\$1, \$2\)`).
		WithArgs("alice", "standard").
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "collections_pkey"})
	err := r.CreateCollection(ctx, "alice", "standard")
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepo_ListCollections(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCollectionRepo(db)

	mock.ExpectQuery(`SELECT name FROM collections WHERE owner=\$1 ORDER BY name`).
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("legacy").AddRow("standard"))
	names, err := r.ListCollections(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"legacy", "standard"}, names)
}

func TestCollectionRepo_ListEntries(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCollectionRepo(db)

	mock.ExpectQuery(`SELECT card, edition, units FROM collection_entries WHERE owner=\$1 AND collection=\$2 AND units > 0 ORDER BY card, edition`).
		WithArgs("alice", "standard").
		WillReturnRows(pgxmock.NewRows([]string{"card", "edition", "units"}).
			AddRow("Counterspell", "LEA", int64(1)).
			AddRow("Lightning Bolt", "LEA", int64(6)))
	entries, err := r.ListEntries(context.Background(), "alice", "standard")
	require.NoError(t, err)
	require.Equal(t, []model.CollectionEntry{
		{Owner: "alice", Collection: "standard", Card: "Counterspell", Edition: "LEA", Units: 1},
		{Owner: "alice", Collection: "standard", Card: "Lightning Bolt", Edition: "LEA", Units: 6},
	}, entries)
}

func TestCollectionRepo_UpsertEntry(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCollectionRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO collections \(owner, name\) VALUES \(\$1, \$2\) ON CONFLICT \(owner, name\) DO NOTHING`).
		WithArgs("alice", "standard").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`INSERT INTO collection_entries \(owner, collection, card, edition, units\) VALUES \(\$1, \$2, \$3, \$4, \$5\) ON CONFLICT \(owner, collection, card, edition\) DO UPDATE SET units = collection_entries\.units \+ EXCLUDED\.units RETURNING units`).
		WithArgs("alice", "standard", "Lightning Bolt", "LEA", int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"units"}).AddRow(int64(6)))
	mock.ExpectCommit()

	units, err := r.UpsertEntry(ctx, "alice", "standard", "Lightning Bolt", "LEA", 2)
	require.NoError(t, err)
	require.Equal(t, int64(6), units)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepo_UpsertEntry_NegativeResultRollsBack(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCollectionRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO collections \(owner, name\) VALUES \(\$1, \$2\) ON CONFLICT \(owner, name\) DO NOTHING`).
		WithArgs("alice", "standard").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`INSERT INTO collection_entries .* RETURNING units`).
		WithArgs("alice", "standard", "Lightning Bolt", "LEA", int64(-10)).
		WillReturnError(&pgconn.PgError{Code: codeCheckViolation, ConstraintName: "collection_entries_units_check"})
	mock.ExpectRollback()

	_, err := r.UpsertEntry(ctx, "alice", "standard", "Lightning Bolt", "LEA", -10)
	require.ErrorIs(t, err, errs.ErrValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

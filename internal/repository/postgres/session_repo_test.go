package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mtgvault/mtgvault/internal/errs"
	"github.com/mtgvault/mtgvault/internal/model"
)

func TestSessionRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db)
	ctx := context.Background()
	s := &model.Session{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4())}

	mock.ExpectExec(`INSERT INTO sessions \(id, user_id\) VALUES \(\$1, \$2\)`).
		WithArgs(s.ID, s.UserID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, s))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Delete_IsIdempotent(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	userID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM sessions WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(ctx, id, userID))

	// Nothing left to delete: still success.
	mock.ExpectExec(`DELETE FROM sessions WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	require.NoError(t, r.Delete(ctx, id, userID))
}

func TestSessionRepo_Delete_ConnectionErrorIsTransient(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewSessionRepo(db)
	id := uuid.Must(uuid.NewV4())
	userID := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM sessions WHERE id=\$1 AND user_id=\$2`).
		WithArgs(id, userID).
		WillReturnError(errors.New("connection refused"))
	err := r.Delete(context.Background(), id, userID)
	require.ErrorIs(t, err, errs.ErrTransient)
}

package database

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx_Commits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1\)`).
		WithArgs(LockKey("matches:user-1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return AdvisoryXactLock(ctx, tx, "matches:user-1")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	fnErr := stderrors.New("insert failed")
	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return fnErr })
	assert.ErrorIs(t, err, fnErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { panic("boom") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginAndCommitErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(stderrors.New("pool exhausted"))
	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	assert.ErrorContains(t, err, "begin tx")

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(stderrors.New("serialization failure"))
	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	assert.ErrorContains(t, err, "commit tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockKey(t *testing.T) {
	assert.Equal(t, LockKey("matches:a"), LockKey("matches:a"))
	assert.NotEqual(t, LockKey("matches:a"), LockKey("matches:b"))
}

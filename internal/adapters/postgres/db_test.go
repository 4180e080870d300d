package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx embeds the pgx.Tx interface for its method set; only the
// lifecycle methods are implemented
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	tx       *fakeTx
	beginErr error
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return db.tx, db.beginErr
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx}

	err := WithTransaction(context.Background(), db, func(ctx context.Context, tx pgx.Tx) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx}
	boom := errors.New("insert failed")

	err := WithTransaction(context.Background(), db, func(ctx context.Context, tx pgx.Tx) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	tx := &fakeTx{}
	db := &fakeDB{tx: tx}

	assert.Panics(t, func() {
		_ = WithTransaction(context.Background(), db, func(ctx context.Context, tx pgx.Tx) error {
			panic("boom")
		})
	})
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestWithTransaction_BeginFailure(t *testing.T) {
	db := &fakeDB{beginErr: errors.New("pool exhausted")}

	err := WithTransaction(context.Background(), db, func(ctx context.Context, tx pgx.Tx) error {
		t.Fatal("fn must not run when begin fails")
		return nil
	})
	assert.ErrorContains(t, err, "begin transaction")
}

func TestWithTransaction_CommitFailure(t *testing.T) {
	tx := &fakeTx{commitErr: errors.New("connection lost")}
	db := &fakeDB{tx: tx}

	err := WithTransaction(context.Background(), db, func(ctx context.Context, tx pgx.Tx) error {
		return nil
	})
	assert.ErrorContains(t, err, "commit transaction")
}

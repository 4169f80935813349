package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/adelorme/labflow/internal/db"
)

// BrokenWriteUoW is a unit of work whose Nth write statement fails with Err.
// Stage-transition tests use FailOn=1 to break the UpdateStage or
// MarkDelivered write while the in-transaction read of the delivery still
// succeeds, proving the item comes back unchanged.
//
// Writes are counted from 1; reads always pass through.
type BrokenWriteUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *BrokenWriteUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	broken := &brokenWriteTx{DBTX: tx, failOn: u.FailOn, err: u.Err}
	if fnErr := fn(ctx, broken); fnErr != nil {
		_ = tx.Rollback()
		return fnErr
	}
	return tx.Commit()
}

// brokenWriteTx intercepts ExecContext only; queries reach the real
// transaction untouched.
type brokenWriteTx struct {
	db.DBTX
	writes atomic.Int32
	failOn int32
	err    error
}

func (b *brokenWriteTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if b.writes.Add(1) == b.failOn {
		return nil, b.err
	}
	return b.DBTX.ExecContext(ctx, query, args...)
}

package pgsql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sairosthedev/alamait-ledger/internal/apperrors"
)

// BaseRepository holds the shared connection pool and transaction plumbing
// for the ledger and account stores.
type BaseRepository struct {
	Pool *pgxpool.Pool
}

func (r *BaseRepository) begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

func (r *BaseRepository) commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

func (r *BaseRepository) rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, sql.ErrTxDone) {
		// Nothing useful to do with a rollback failure; the tx is dead either
		// way and the original error is already on its way to the caller.
		_ = err
	}
}

// runInTx executes fn inside one transaction. The ledger is append-only and
// its invariants span tables (entry + postings + allocations, reversal +
// status flip), so every multi-statement write goes through here: a failing
// fn leaves nothing behind.
func (r *BaseRepository) runInTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	defer r.rollback(ctx, tx) // no-op once committed

	if err := fn(tx); err != nil {
		return err
	}
	return r.commit(ctx, tx)
}

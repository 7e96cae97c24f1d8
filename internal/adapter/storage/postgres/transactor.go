package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Transactor opens the transaction a transfer runs in. Isolation stays at
// read committed; balance reads inside the transaction take FOR UPDATE row
// locks instead.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a Transactor on the connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin starts a read-committed transaction.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin transfer transaction: %w", err)
	}
	return tx, nil
}

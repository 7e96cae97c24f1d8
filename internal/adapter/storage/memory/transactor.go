package memory

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Transactor implements ports.DBTransactor for UserRepo.
// Transactions are serialized: Begin blocks while another is open, which
// gives the same guarantees as row locks held until commit.
type Transactor struct {
	repo *UserRepo
	sem  chan struct{}
}

// NewTransactor creates a Transactor bound to repo.
func NewTransactor(repo *UserRepo) *Transactor {
	return &Transactor{repo: repo, sem: make(chan struct{}, 1)}
}

// Begin waits for any open transaction to finish, then starts a new one.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	select {
	case t.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &memTx{
		repo:    t.repo,
		deltas:  make(map[string]int64),
		release: func() { <-t.sem },
	}, nil
}

// memTx buffers balance deltas until Commit. Methods it does not override
// come from the nil embedded pgx.Tx and must not be called.
type memTx struct {
	pgx.Tx
	repo    *UserRepo
	deltas  map[string]int64
	closed  bool
	once    sync.Once
	release func()
}

func (t *memTx) add(username string, delta int64) {
	t.deltas[username] += delta
}

// Commit applies the buffered deltas. A failed commit changes nothing.
func (t *memTx) Commit(_ context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	defer t.finish()
	return t.repo.apply(t.deltas)
}

// Rollback discards the buffered deltas.
func (t *memTx) Rollback(_ context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.finish()
	return nil
}

func (t *memTx) finish() {
	t.once.Do(func() {
		t.closed = true
		t.deltas = nil
		t.release()
	})
}

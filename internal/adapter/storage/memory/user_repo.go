// Package memory provides in-process implementations of the storage ports.
// It backs the tests and the database.driver=memory mode of the API, where
// users live only as long as the process.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"balance-transfer-api/internal/core/domain"
	"balance-transfer-api/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var errForeignTx = errors.New("transaction does not belong to this store")

// UserRepo implements ports.UserRepository over a map keyed by username.
// Returned users are copies.
type UserRepo struct {
	mu     sync.RWMutex
	byName map[string]*domain.User
	byID   map[uuid.UUID]string
}

// NewUserRepo creates an empty UserRepo.
func NewUserRepo() *UserRepo {
	return &UserRepo{
		byName: make(map[string]*domain.User),
		byID:   make(map[uuid.UUID]string),
	}
}

// Create stores u. The uniqueness check and insert happen under one lock.
func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[u.Username]; ok {
		return fmt.Errorf("insert user %q: %w", u.Username, ports.ErrDuplicateUsername)
	}
	cp := *u
	r.byName[u.Username] = &cp
	r.byID[u.ID] = u.Username
	return nil
}

// GetByID returns a copy of the user with id, or nil if none exists.
func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return r.copyOf(name), nil
}

// GetByUsername returns a copy of the named user, or nil if none exists.
func (r *UserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.copyOf(username), nil
}

// GetByUsernameForUpdate returns the user as seen inside tx, including
// deltas the transaction has not committed yet.
func (r *UserRepo) GetByUsernameForUpdate(_ context.Context, tx pgx.Tx, username string) (*domain.User, error) {
	t, err := r.ownTx(tx)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	u := r.copyOf(username)
	r.mu.RUnlock()

	if u != nil && t != nil {
		u.Balance += t.deltas[username]
	}
	return u, nil
}

// IncrementBalance applies delta immediately when tx is nil, otherwise it
// buffers the delta until tx commits.
func (r *UserRepo) IncrementBalance(_ context.Context, tx pgx.Tx, username string, delta int64) (*domain.User, error) {
	t, err := r.ownTx(tx)
	if err != nil {
		return nil, err
	}

	if t == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		u, ok := r.byName[username]
		if !ok {
			return nil, nil
		}
		if u.Balance+delta < 0 {
			return nil, fmt.Errorf("increment balance of %q: balance would be negative", username)
		}
		u.Balance += delta
		u.UpdatedAt = time.Now().UTC()
		cp := *u
		return &cp, nil
	}

	r.mu.RLock()
	u := r.copyOf(username)
	r.mu.RUnlock()
	if u == nil {
		return nil, nil
	}

	t.add(username, delta)
	u.Balance += t.deltas[username]
	return u, nil
}

// Delete removes the user with id. It reports false if nothing was removed.
func (r *UserRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	delete(r.byID, id)
	delete(r.byName, name)
	return true, nil
}

// Len returns the number of stored users.
func (r *UserRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// copyOf must be called with r.mu held.
func (r *UserRepo) copyOf(username string) *domain.User {
	u, ok := r.byName[username]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (r *UserRepo) ownTx(tx pgx.Tx) (*memTx, error) {
	if tx == nil {
		return nil, nil
	}
	t, ok := tx.(*memTx)
	if !ok || t.repo != r {
		return nil, errForeignTx
	}
	if t.closed {
		return nil, pgx.ErrTxClosed
	}
	return t, nil
}

// apply commits deltas atomically. Every user must still exist and no
// balance may go negative, otherwise nothing changes.
func (r *UserRepo) apply(deltas map[string]int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, d := range deltas {
		u, ok := r.byName[name]
		if !ok {
			return fmt.Errorf("commit: user %q no longer exists", name)
		}
		if u.Balance+d < 0 {
			return fmt.Errorf("commit: balance of %q would be negative", name)
		}
	}

	now := time.Now().UTC()
	for name, d := range deltas {
		u := r.byName[name]
		u.Balance += d
		u.UpdatedAt = now
	}
	return nil
}

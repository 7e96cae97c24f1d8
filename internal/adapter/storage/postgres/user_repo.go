package postgres

import (
	"context"
	"errors"
	"fmt"

	"balance-transfer-api/internal/core/domain"
	"balance-transfer-api/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE unique_violation.
const uniqueViolation = "23505"

const userColumns = `id, username, password_salt, password_hash, balance, created_at, updated_at`

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create inserts a new user. A taken username yields ports.ErrDuplicateUsername.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Username, u.Credential.Salt, u.Credential.Hash,
		u.Balance, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert user %q: %w", u.Username, ports.ErrDuplicateUsername)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID fetches a user by UUID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// GetByUsernameForUpdate fetches a user with a row lock held until tx ends.
// This MUST be called within a transaction.
func (r *UserRepo) GetByUsernameForUpdate(ctx context.Context, tx pgx.Tx, username string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 FOR UPDATE`

	u, err := scanUser(tx.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}
	return u, nil
}

// IncrementBalance adds delta to the balance in a single statement and
// returns the updated row. A nil tx runs the update on the pool.
func (r *UserRepo) IncrementBalance(ctx context.Context, tx pgx.Tx, username string, delta int64) (*domain.User, error) {
	query := `UPDATE users SET balance = balance + $1, updated_at = NOW()
		WHERE username = $2
		RETURNING ` + userColumns

	var q rowQuerier = r.pool
	if tx != nil {
		q = tx
	}

	u, err := scanUser(q.QueryRow(ctx, query, delta, username))
	if err != nil {
		return nil, fmt.Errorf("increment balance: %w", err)
	}
	return u, nil
}

// Delete removes a user by ID.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanUser returns (nil, nil) when the row does not exist.
func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(
		&u.ID, &u.Username, &u.Credential.Salt, &u.Credential.Hash,
		&u.Balance, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

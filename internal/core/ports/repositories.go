package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"errors"

	"balance-transfer-api/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateUsername is returned by UserRepository.Create when the
// username is already taken. Stores must detect this at their uniqueness
// constraint, not with a prior lookup.
var ErrDuplicateUsername = errors.New("duplicate username")

// UserRepository defines persistence operations for users.
// Lookups return (nil, nil) when no user matches.
// Methods accepting pgx.Tx are used inside transaction blocks for pessimistic locking.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByUsernameForUpdate(ctx context.Context, tx pgx.Tx, username string) (*domain.User, error)
	// IncrementBalance adds delta to the user's balance atomically and
	// returns the updated record, or nil if the user does not exist.
	IncrementBalance(ctx context.Context, tx pgx.Tx, username string, delta int64) (*domain.User, error)
	// Delete removes a user. Returns false if nothing was deleted.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

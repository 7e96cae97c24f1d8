package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"balance-transfer-api/internal/core/domain"
	"balance-transfer-api/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(username string, balance int64) *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:         uuid.New(),
		Username:   username,
		Credential: domain.PasswordCredential{Salt: "a1b2c3", Hash: "d4e5f6"},
		Balance:    balance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func userRow(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "username", "password_salt", "password_hash", "balance", "created_at", "updated_at",
	}).AddRow(
		u.ID, u.Username, u.Credential.Salt, u.Credential.Hash,
		u.Balance, u.CreatedAt, u.UpdatedAt,
	)
}

func TestUserRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser("alice", 100)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Username, u.Credential.Salt, u.Credential.Hash,
			u.Balance, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_DuplicateUsername(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser("alice", 100)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Username, u.Credential.Salt, u.Credential.Hash,
			u.Balance, u.CreatedAt, u.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	err = repo.Create(context.Background(), u)
	assert.ErrorIs(t, err, ports.ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_OtherError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser("alice", 100)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Username, u.Credential.Salt, u.Credential.Hash,
			u.Balance, u.CreatedAt, u.UpdatedAt).
		WillReturnError(errors.New("connection reset"))

	err = repo.Create(context.Background(), u)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrDuplicateUsername)
}

func TestUserRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser("alice", 100)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	result, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, u.Username, result.Username)
	assert.Equal(t, u.Credential, result.Credential)
	assert.Equal(t, int64(100), result.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsername_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByUsername_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username").
		WithArgs("alice").
		WillReturnError(errors.New("timeout"))

	result, err := repo.GetByUsername(context.Background(), "alice")
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestUserRepo_GetByUsernameForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	u := newTestUser("alice", 100)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM users WHERE username .+ FOR UPDATE").
		WithArgs("alice").
		WillReturnRows(userRow(u))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByUsernameForUpdate(context.Background(), tx, "alice")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, u.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_IncrementBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	updated := newTestUser("bob", 140)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users SET balance = balance").
		WithArgs(int64(40), "bob").
		WillReturnRows(userRow(updated))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.IncrementBalance(context.Background(), tx, "bob", 40)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(140), result.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_IncrementBalance_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)

	mock.ExpectQuery("UPDATE users SET balance = balance").
		WithArgs(int64(-10), "ghost").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.IncrementBalance(context.Background(), nil, "ghost", -10)
	assert.NoError(t, err)
	assert.Nil(t, result, "missing user is reported as nil")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM users").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM users").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	deleted, err := repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_Begin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	mock.ExpectRollback()

	tr := NewTransactor(mock)
	tx, err := tr.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_BeginError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted}).WillReturnError(errors.New("pool exhausted"))

	_, err = NewTransactor(mock).Begin(context.Background())
	assert.ErrorContains(t, err, "begin transfer transaction")
}

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	hc := NewHealthCheck(mock)
	assert.Equal(t, "postgres", hc.Name())
	assert.NoError(t, hc.Ping(context.Background()))
	assert.ErrorContains(t, hc.Ping(context.Background()), "user store unreachable")
	assert.NoError(t, mock.ExpectationsWereMet())
}

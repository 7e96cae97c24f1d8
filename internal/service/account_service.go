package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balance-transfer-api/internal/core/domain"
	"balance-transfer-api/internal/core/ports"
	"balance-transfer-api/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// AccountServiceImpl implements ports.AccountService.
type AccountServiceImpl struct {
	userRepo       ports.UserRepository
	transactor     ports.DBTransactor
	hasher         ports.PasswordHasher
	tokenSvc       ports.TokenService
	initialBalance int64
	log            zerolog.Logger
}

// NewAccountService creates a new AccountServiceImpl.
func NewAccountService(
	userRepo ports.UserRepository,
	transactor ports.DBTransactor,
	hasher ports.PasswordHasher,
	tokenSvc ports.TokenService,
	initialBalance int64,
	log zerolog.Logger,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		userRepo:       userRepo,
		transactor:     transactor,
		hasher:         hasher,
		tokenSvc:       tokenSvc,
		initialBalance: initialBalance,
		log:            log,
	}
}

// Register creates a user with the initial balance and issues a token pair.
func (s *AccountServiceImpl) Register(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	if username == "" || password == "" {
		return nil, apperror.ErrCredentialsRequired()
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, s.internalError("check username", err)
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	cred, err := s.hasher.Derive(password)
	if err != nil {
		return nil, s.internalError("derive credential", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:         uuid.New(),
		Username:   username,
		Credential: cred,
		Balance:    s.initialBalance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The lookup above is only a fast path; the store's unique constraint
	// decides concurrent registrations.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ports.ErrDuplicateUsername) {
			return nil, apperror.ErrUsernameExists()
		}
		return nil, s.internalError("create user", err)
	}

	pair, err := s.tokenSvc.Issue(user.ID)
	if err != nil {
		return nil, s.internalError("issue tokens", err)
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("username", username).
		Msg("user registered")

	return pair, nil
}

// Login checks credentials and issues a token pair.
func (s *AccountServiceImpl) Login(ctx context.Context, username, password string) (*domain.TokenPair, error) {
	if username == "" || password == "" {
		return nil, apperror.ErrCredentialsRequired()
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, s.internalError("find user", err)
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	if !s.hasher.Verify(password, user.Credential) {
		return nil, apperror.ErrInvalidPassword()
	}

	pair, err := s.tokenSvc.Issue(user.ID)
	if err != nil {
		return nil, s.internalError("issue tokens", err)
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("username", username).
		Msg("user logged in")

	return pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AccountServiceImpl) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperror.ErrMissingToken()
	}

	claims, err := s.tokenSvc.VerifyRefresh(refreshToken)
	if err != nil {
		return "", asInvalidToken(err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return "", s.internalError("find user", err)
	}
	if user == nil {
		return "", apperror.ErrUserNotFound()
	}

	token, _, err := s.tokenSvc.IssueAccess(user.ID)
	if err != nil {
		return "", s.internalError("issue access token", err)
	}

	return token, nil
}

// Authenticate verifies an access token and returns the user it names.
func (s *AccountServiceImpl) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	if accessToken == "" {
		return nil, apperror.ErrMissingBearer()
	}

	claims, err := s.tokenSvc.VerifyAccess(accessToken)
	if err != nil {
		return nil, asInvalidToken(err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, s.internalError("find user", err)
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken(errors.New("token subject no longer exists"))
	}

	return user, nil
}

// GetBalance returns the current balance of the named user.
func (s *AccountServiceImpl) GetBalance(ctx context.Context, username string) (int64, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return 0, s.internalError("find user", err)
	}
	if user == nil {
		return 0, apperror.ErrUserNotFound()
	}
	return user.Balance, nil
}

// Transfer debits the sender and credits the recipient in one database
// transaction and returns the sender's new balance.
func (s *AccountServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (int64, error) {
	if req.Sender == "" || req.Recipient == "" {
		return 0, apperror.Validation("Sender and recipient are required")
	}
	if req.Sender == req.Recipient {
		return 0, apperror.ErrSelfTransfer()
	}
	if req.Amount <= 0 {
		return 0, apperror.ErrInvalidAmount()
	}
	if req.BalanceSnapshot != nil && *req.BalanceSnapshot < req.Amount {
		return 0, apperror.ErrInsufficientFunds()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return 0, s.internalError("begin tx", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	sender, recipient, err := s.lockPair(ctx, dbTx, req.Sender, req.Recipient)
	if err != nil {
		return 0, err
	}
	if sender == nil {
		return 0, apperror.ErrUserNotFound()
	}
	if recipient == nil {
		return 0, apperror.ErrRecipientNotFound()
	}

	if !sender.CanAfford(req.Amount) {
		return 0, apperror.ErrInsufficientFunds()
	}

	debited, err := s.userRepo.IncrementBalance(ctx, dbTx, req.Sender, -req.Amount)
	if err != nil {
		return 0, s.internalError("debit sender", err)
	}
	if debited == nil {
		return 0, apperror.ErrUserNotFound()
	}

	credited, err := s.userRepo.IncrementBalance(ctx, dbTx, req.Recipient, req.Amount)
	if err != nil {
		return 0, s.internalError("credit recipient", err)
	}
	if credited == nil {
		return 0, apperror.ErrRecipientNotFound()
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, s.internalError("commit tx", err)
	}

	s.log.Info().
		Str("sender", req.Sender).
		Str("recipient", req.Recipient).
		Int64("amount", req.Amount).
		Int64("sender_balance", debited.Balance).
		Msg("transfer completed")

	return debited.Balance, nil
}

// lockPair row-locks both users in ascending username order so concurrent
// opposite transfers cannot deadlock.
func (s *AccountServiceImpl) lockPair(ctx context.Context, tx pgx.Tx, sender, recipient string) (*domain.User, *domain.User, error) {
	first, second := sender, recipient
	if second < first {
		first, second = second, first
	}

	a, err := s.userRepo.GetByUsernameForUpdate(ctx, tx, first)
	if err != nil {
		return nil, nil, s.internalError("lock "+first, err)
	}
	b, err := s.userRepo.GetByUsernameForUpdate(ctx, tx, second)
	if err != nil {
		return nil, nil, s.internalError("lock "+second, err)
	}

	if first == sender {
		return a, b, nil
	}
	return b, a, nil
}

// internalError logs a storage or signing failure with its cause and hides
// the cause behind SYS_001 for the client.
func (s *AccountServiceImpl) internalError(op string, err error) error {
	s.log.Error().Err(err).Str("op", op).Msg("account operation failed")
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// asInvalidToken keeps token failures typed; anything untyped becomes
// InvalidToken.
func asInvalidToken(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.ErrInvalidToken(err)
}

package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"balance-transfer-api/internal/core/domain"

	"github.com/google/uuid"
)

// PasswordHasher derives and checks salted password credentials.
type PasswordHasher interface {
	// Derive returns a credential with a fresh random salt.
	Derive(password string) (domain.PasswordCredential, error)
	// Verify reports whether password matches cred. It never fails loudly.
	Verify(password string, cred domain.PasswordCredential) bool
}

// TokenService issues and verifies access and refresh tokens.
type TokenService interface {
	Issue(userID uuid.UUID) (*domain.TokenPair, error)
	IssueAccess(userID uuid.UUID) (string, time.Time, error)
	VerifyAccess(token string) (*TokenClaims, error)
	VerifyRefresh(token string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID    uuid.UUID
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// --- Service Ports (Business Logic) ---

// AccountService defines registration, authentication and balance logic.
type AccountService interface {
	Register(ctx context.Context, username, password string) (*domain.TokenPair, error)
	Login(ctx context.Context, username, password string) (*domain.TokenPair, error)
	// Refresh mints a new access token from a refresh token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
	// Authenticate verifies an access token and loads its subject.
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
	GetBalance(ctx context.Context, username string) (int64, error)
	// Transfer moves amount from sender to recipient and returns the
	// sender's new balance.
	Transfer(ctx context.Context, req TransferRequest) (int64, error)
}

// TransferRequest holds validated input for a balance transfer.
type TransferRequest struct {
	Sender    string
	Recipient string
	Amount    int64
	// BalanceSnapshot is the sender balance observed when the caller was
	// authenticated. nil skips the early check.
	BalanceSnapshot *int64
}

package service

import (
	"errors"
	"fmt"
	"time"

	"balance-transfer-api/internal/core/domain"
	"balance-transfer-api/internal/core/ports"
	"balance-transfer-api/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// tokenClaims is the signed payload of both token kinds.
type tokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenOption configures a JWTTokenService.
type TokenOption func(*JWTTokenService)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(s *JWTTokenService) {
		s.now = now
	}
}

// JWTTokenService implements ports.TokenService using HS256 JWT.
// Access and refresh tokens are signed with distinct secrets.
type JWTTokenService struct {
	accessSecret  []byte
	accessExpiry  time.Duration
	refreshSecret []byte
	refreshExpiry time.Duration
	issuer        string
	now           func() time.Time
}

// NewJWTTokenService creates a new JWT token service.
func NewJWTTokenService(
	accessSecret string,
	accessExpiry time.Duration,
	refreshSecret string,
	refreshExpiry time.Duration,
	issuer string,
	opts ...TokenOption,
) *JWTTokenService {
	s := &JWTTokenService{
		accessSecret:  []byte(accessSecret),
		accessExpiry:  accessExpiry,
		refreshSecret: []byte(refreshSecret),
		refreshExpiry: refreshExpiry,
		issuer:        issuer,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates an access and refresh token pair for the user.
func (s *JWTTokenService) Issue(userID uuid.UUID) (*domain.TokenPair, error) {
	access, accessExp, err := s.sign(userID, tokenTypeAccess, s.accessSecret, s.accessExpiry)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.sign(userID, tokenTypeRefresh, s.refreshSecret, s.refreshExpiry)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// IssueAccess creates an access token only.
func (s *JWTTokenService) IssueAccess(userID uuid.UUID) (string, time.Time, error) {
	return s.sign(userID, tokenTypeAccess, s.accessSecret, s.accessExpiry)
}

// VerifyAccess validates an access token.
func (s *JWTTokenService) VerifyAccess(token string) (*ports.TokenClaims, error) {
	return s.verify(token, tokenTypeAccess, s.accessSecret)
}

// VerifyRefresh validates a refresh token.
func (s *JWTTokenService) VerifyRefresh(token string) (*ports.TokenClaims, error) {
	return s.verify(token, tokenTypeRefresh, s.refreshSecret)
}

func (s *JWTTokenService) sign(userID uuid.UUID, typ string, secret []byte, expiry time.Duration) (string, time.Time, error) {
	// NumericDate has second precision.
	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(expiry)

	claims := tokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing %s token: %w", typ, err)
	}

	return tokenString, expiresAt, nil
}

func (s *JWTTokenService) verify(tokenString, typ string, secret []byte) (*ports.TokenClaims, error) {
	if tokenString == "" {
		return nil, apperror.ErrMissingToken()
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)

	var claims tokenClaims
	token, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, apperror.ErrInvalidToken(fmt.Errorf("parsing token: %w", err))
	}
	if !token.Valid {
		return nil, apperror.ErrInvalidToken(errors.New("token not valid"))
	}
	if claims.Type != typ {
		return nil, apperror.ErrInvalidToken(fmt.Errorf("expected %s token, got %q", typ, claims.Type))
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.ErrInvalidToken(fmt.Errorf("invalid subject in token: %w", err))
	}

	out := &ports.TokenClaims{
		UserID:  userID,
		TokenID: claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.UTC()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.UTC()
	}
	return out, nil
}

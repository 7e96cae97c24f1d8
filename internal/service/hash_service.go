package service

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"balance-transfer-api/internal/core/domain"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 defaults. Stored credentials depend on them, so changing any value
// invalidates every existing password.
const (
	DefaultPBKDF2Iterations = 10000
	DefaultPBKDF2KeyLen     = 64
	DefaultPBKDF2SaltLen    = 16
)

// PBKDF2Hasher implements ports.PasswordHasher using PBKDF2-HMAC-SHA512.
// The salt is the hex text of saltLen random bytes and is fed to the KDF as
// that text, not as the decoded bytes.
type PBKDF2Hasher struct {
	iterations int
	keyLen     int
	saltLen    int
}

// NewPBKDF2Hasher creates a hasher. Non-positive arguments fall back to the
// package defaults.
func NewPBKDF2Hasher(iterations, keyLen, saltLen int) *PBKDF2Hasher {
	if iterations <= 0 {
		iterations = DefaultPBKDF2Iterations
	}
	if keyLen <= 0 {
		keyLen = DefaultPBKDF2KeyLen
	}
	if saltLen <= 0 {
		saltLen = DefaultPBKDF2SaltLen
	}
	return &PBKDF2Hasher{iterations: iterations, keyLen: keyLen, saltLen: saltLen}
}

// Derive generates a fresh salt and derives the password hash from it.
func (h *PBKDF2Hasher) Derive(password string) (domain.PasswordCredential, error) {
	raw := make([]byte, h.saltLen)
	if _, err := rand.Read(raw); err != nil {
		return domain.PasswordCredential{}, fmt.Errorf("generating salt: %w", err)
	}
	salt := hex.EncodeToString(raw)

	return domain.PasswordCredential{
		Salt: salt,
		Hash: hex.EncodeToString(h.derive(password, salt)),
	}, nil
}

// Verify recomputes the hash with the stored salt and compares it in
// constant time. Malformed credentials never match.
func (h *PBKDF2Hasher) Verify(password string, cred domain.PasswordCredential) bool {
	if cred.Salt == "" || cred.Hash == "" {
		return false
	}
	stored, err := hex.DecodeString(cred.Hash)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(stored, h.derive(password, cred.Salt)) == 1
}

func (h *PBKDF2Hasher) derive(password, salt string) []byte {
	return pbkdf2.Key([]byte(password), []byte(salt), h.iterations, h.keyLen, sha512.New)
}

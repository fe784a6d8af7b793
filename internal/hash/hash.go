// Package hash implements the password hashing capability consumed by the
// authentication service. Passwords are pre-hashed with HMAC-SHA256 using an
// application-wide pepper, then run through bcrypt, so a database dump alone
// is not enough to mount an offline attack.
package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"authd/internal/common"
)

// Manager hashes and verifies passwords with a configured pepper.
type Manager struct {
	pepper []byte
	cost   int
}

func NewManager(pepper []byte) *Manager {
	return &Manager{pepper: pepper, cost: bcrypt.DefaultCost}
}

func (m *Manager) applyPepper(password string) []byte {
	mac := hmac.New(sha256.New, m.pepper)
	mac.Write([]byte(password))
	// hex keeps the bcrypt input well under its 72-byte limit
	return []byte(hex.EncodeToString(mac.Sum(nil)))
}

// Hash returns the bcrypt hash of the peppered password.
func (m *Manager) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword(m.applyPepper(password), m.cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(h), nil
}

// Verify compares a plaintext password against a stored hash. A mismatch
// yields common.ErrInvalidPassword; other failures are reported as-is.
func (m *Manager) Verify(password, storedHash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), m.applyPepper(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return common.ErrInvalidPassword
		}
		return fmt.Errorf("error verifying password: %w", err)
	}
	return nil
}

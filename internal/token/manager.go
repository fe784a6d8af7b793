// Package token mints and verifies the signed claim sets used by the
// authentication flow. Access and refresh tokens are signed with two
// independent HMAC keys, so compromising one secret does not allow forging
// tokens of the other kind.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"authd/internal/common"
)

// Type tags a claim set as belonging to an access or a refresh token.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims is the claim set carried by both token kinds. RefreshTokenID is only
// set on refresh tokens and references the persisted record backing them.
type Claims struct {
	jwt.RegisteredClaims
	UserID         int64  `json:"user_id"`
	Email          string `json:"email"`
	TokenType      Type   `json:"token_type"`
	RefreshTokenID string `json:"refresh_token_id,omitempty"`
}

// Manager signs and verifies tokens. Expiry checks use zero leeway: any
// clock-skew tolerance must be added explicitly, not assumed.
type Manager struct {
	accessKey  []byte
	refreshKey []byte
}

func NewManager(accessKey, refreshKey []byte) *Manager {
	return &Manager{accessKey: accessKey, refreshKey: refreshKey}
}

// GenerateAccessToken mints a short-lived access token and returns it together
// with the issuance timestamp for client-visible metadata.
func (m *Manager) GenerateAccessToken(userID int64, email string, ttl time.Duration) (string, time.Time, error) {
	return m.generate(userID, email, TypeAccess, "", ttl, m.accessKey)
}

// GenerateRefreshToken mints a refresh token whose claims embed the id of the
// persisted record that proves its validity.
func (m *Manager) GenerateRefreshToken(userID int64, email, recordID string, ttl time.Duration) (string, time.Time, error) {
	return m.generate(userID, email, TypeRefresh, recordID, ttl, m.refreshKey)
}

func (m *Manager) generate(userID int64, email string, typ Type, recordID string, ttl time.Duration, key []byte) (string, time.Time, error) {
	issuedAt := time.Now()

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		UserID:         userID,
		Email:          email,
		TokenType:      typ,
		RefreshTokenID: recordID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("error signing token: %w", err)
	}

	return signed, issuedAt, nil
}

// ParseAccessToken verifies a token against the access key. Expiry is always
// enforced on access tokens.
func (m *Manager) ParseAccessToken(raw string) (*Claims, error) {
	return parse(raw, m.accessKey, true)
}

// ParseRefreshToken verifies a token against the refresh key. checkExpiry=false
// still verifies the signature but skips claim validation; the replay-handling
// path uses it to recover the user id from an already-expired token.
func (m *Manager) ParseRefreshToken(raw string, checkExpiry bool) (*Claims, error) {
	return parse(raw, m.refreshKey, checkExpiry)
}

func parse(raw string, key []byte, checkExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if !checkExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, opts...)
	if err != nil {
		return nil, classifyParseError(err)
	}

	return claims, nil
}

// classifyParseError maps golang-jwt failures onto the closed sentinel set the
// rest of the system matches on.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return common.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return common.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return common.ErrTokenMalformed
	default:
		// algorithm mismatch and any other structural violation
		return common.ErrInvalidToken
	}
}

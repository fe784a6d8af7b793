// Package common defines shared constants and sentinel errors used across
// the authd server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Login errors. Both collapse to a generic 401 at the HTTP boundary.
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserExists      = errors.New("user already exists")

	// Refresh-path errors. ErrInvalidCredentials is the only rejection the
	// caller ever sees for token anomalies; ErrSecretLeakSuspected is an
	// internal classification and must be converted before leaving the service.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInactiveUser        = errors.New("inactive user")
	ErrSecretLeakSuspected = errors.New("signing secret leak suspected")

	// Token decode errors (access and refresh).
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("invalid token signature")
	ErrTokenMalformed        = errors.New("malformed token")
	ErrInvalidToken          = errors.New("invalid token")

	// Gate-level error for requests carrying no bearer credential at all.
	ErrNoAuthToken = errors.New("no or invalid token provided")
)

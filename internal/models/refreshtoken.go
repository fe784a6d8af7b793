package models

import "time"

// RefreshToken is a persisted refresh-token record. The signed refresh JWT
// references a row by ID; a token whose row is gone is no longer redeemable.
// ExpiresAt is set slightly past the claim's exp so the claim always expires
// at or before the record.
type RefreshToken struct {
	ID                string
	UserID            int64
	DeviceFingerprint string
	CreatedAt         time.Time
	ExpiresAt         time.Time
}

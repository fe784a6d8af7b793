// Package refreshtokens declares the server-side store contract for
// refresh-token records in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"authd/internal/models"
)

// Repository defines operations for issuing, retrieving, and revoking
// refresh-token records. The record id is generated server-side.
type Repository interface {
	// Create stores a new record for userID bound to the device fingerprint.
	// expiresAt is expected to sit slightly past the signed claim's expiry.
	Create(ctx context.Context, userID int64, fingerprint string, expiresAt time.Time) (*models.RefreshToken, error)

	// GetByID looks up a record by its id. Missing records yield
	// common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.RefreshToken, error)

	// ListByUserID returns all live records for a user.
	ListByUserID(ctx context.Context, userID int64) ([]*models.RefreshToken, error)

	// DeleteByID removes a record and reports how many rows were deleted.
	// Deleting a non-existent record is not an error, but rotation depends
	// on the count: a zero-row delete means another transaction already
	// consumed the record.
	DeleteByID(ctx context.Context, id string) (int64, error)

	// DeleteByUserID removes all records for a user and reports how many
	// were deleted.
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)

	// DeleteByUserIDAndDevice removes the records for one (user, device)
	// pair and reports how many were deleted. More than one is an invariant
	// violation the caller should log.
	DeleteByUserIDAndDevice(ctx context.Context, userID int64, fingerprint string) (int64, error)
}

// Package users declares the server-side directory contract for user records.
package users

import (
	"context"

	"authd/internal/models"
)

// Repository defines read operations over user records plus the create used
// by registration and bootstrap. The authentication core treats users as
// read-only except for creation.
type Repository interface {
	// Create inserts a new user and returns it with the generated id and
	// timestamps. A duplicate email yields common.ErrUserExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID returns the user profile (no password hash).
	// Missing users yield common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetCredentialsByEmail returns the user including the stored password
	// hash. Missing users yield common.ErrorNotFound.
	GetCredentialsByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns user profiles ordered by id. limit<=0 means no limit.
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int64, error)
}

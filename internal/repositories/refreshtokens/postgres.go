// Package refreshtokens provides a PostgreSQL-backed store for the
// refresh-token records used in the token rotation flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"authd/internal/common"
	"authd/internal/dbx"
	"authd/internal/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a store bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new record with a server-generated id.
func (r *PostgresRepository) Create(ctx context.Context, userID int64, fingerprint string, expiresAt time.Time) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (id, user_id, device_fingerprint, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	record := &models.RefreshToken{
		ID:                uuid.NewString(),
		UserID:            userID,
		DeviceFingerprint: fingerprint,
		ExpiresAt:         expiresAt,
	}
	err := r.db.QueryRowContext(ctx, query,
		record.ID, record.UserID, record.DeviceFingerprint, record.ExpiresAt).
		Scan(&record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return record, nil
}

// GetByID returns the record for the given id, or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, device_fingerprint, created_at, expires_at
		FROM refresh_tokens
		WHERE id = $1
	`
	record := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&record.ID, &record.UserID, &record.DeviceFingerprint, &record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return record, nil
}

// ListByUserID returns all records belonging to a user.
func (r *PostgresRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, device_fingerprint, created_at, expires_at
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.RefreshToken
	for rows.Next() {
		record := &models.RefreshToken{}
		if err := rows.Scan(&record.ID, &record.UserID, &record.DeviceFingerprint, &record.CreatedAt, &record.ExpiresAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// DeleteByID removes a record by id and reports the affected row count.
func (r *PostgresRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// DeleteByUserID removes all of a user's records.
func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// DeleteByUserIDAndDevice removes the records for one (user, device) pair.
func (r *PostgresRepository) DeleteByUserIDAndDevice(ctx context.Context, userID int64, fingerprint string) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND device_fingerprint = $2
	`
	res, err := r.db.ExecContext(ctx, query, userID, fingerprint)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, logout, and the single-use
// refresh-token rotation protocol with its revocation cascades.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"authd/internal/common"
	"authd/internal/config"
	"authd/internal/dbx"
	"authd/internal/logging"
	"authd/internal/models"
	"authd/internal/repositories/repomanager"
	"authd/internal/token"
)

// RecordExpiryLeeway is how far past the signed claim's expiry the backing
// record stays alive. A token that expired moments ago must still find its
// record, so the replay branch can tell "expired, record present" apart from
// "expired, record already rotated away".
const RecordExpiryLeeway = time.Minute

// TokenPair bundles a freshly minted access/refresh token pair together with
// the metadata the HTTP layer returns to clients.
type TokenPair struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenIssuedAt   time.Time
	RefreshTokenIssuedAt  time.Time
	AccessTokenExpiresIn  int64 // seconds
	RefreshTokenExpiresIn int64 // seconds
	TokenType             string
}

// PasswordHasher hashes and verifies passwords. A mismatch on Verify yields
// common.ErrInvalidPassword.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, storedHash string) error
}

// TokenSigner mints and verifies the signed claim sets of both token kinds.
type TokenSigner interface {
	GenerateAccessToken(userID int64, email string, ttl time.Duration) (string, time.Time, error)
	GenerateRefreshToken(userID int64, email, recordID string, ttl time.Duration) (string, time.Time, error)
	ParseAccessToken(raw string) (*token.Claims, error)
	ParseRefreshToken(raw string, checkExpiry bool) (*token.Claims, error)
}

// Fingerprinter derives a canonical device fingerprint from a user-agent string.
type Fingerprinter interface {
	Fingerprint(rawUserAgent string) string
}

// anomaly classifies a suspicious refresh attempt. reason stays internal;
// callers only ever see a generic rejection. userIDs lists every user whose
// refresh tokens must be revoked before that rejection is returned.
type anomaly struct {
	reason  error
	userIDs []int64
}

// UserService provides authentication-related operations:
// - Login: verify credentials and mint a token pair bound to the device
// - Refresh: rotate a single-use refresh token, revoking on anomalies
// - Logout: drop the refresh records of the calling device
// - Register/GetUserByID/ListUsers/CountUsers: user directory operations
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	hasher                       PasswordHasher
	tokens                       TokenSigner
	fingerprints                 Fingerprinter
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	logger                       logging.Logger
}

// NewUserService constructs a UserService from its collaborators and config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher,
	signer TokenSigner, fp Fingerprinter, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		hasher:                       hasher,
		tokens:                       signer,
		fingerprints:                 fp,
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		logger:                       logger,
	}
}

// Login verifies the credentials, replaces any refresh record this device
// already holds, and returns a fresh token pair together with the user.
func (s *UserService) Login(ctx context.Context, email, password, userAgent string) (*TokenPair, *models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}

	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		if errors.Is(err, common.ErrInvalidPassword) {
			return nil, nil, common.ErrInvalidPassword
		}
		return nil, nil, fmt.Errorf("error verifying password: %w", err)
	}

	if !user.IsActive {
		s.logger.Warn(ctx, "login attempt by inactive user", "user_id", user.ID)
		return nil, nil, common.ErrInactiveUser
	}

	fingerprint := s.fingerprints.Fingerprint(userAgent)

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)

		// a device holds at most one live record; replace, never accumulate
		deleted, err := repoTx.DeleteByUserIDAndDevice(ctx, user.ID, fingerprint)
		if err != nil {
			return fmt.Errorf("error removing stale refresh tokens: %w", err)
		}
		if deleted > 1 {
			s.logger.Warn(ctx, "multiple refresh records existed for one device",
				"user_id", user.ID, "fingerprint", fingerprint, "removed", deleted)
		}

		var genErr error
		pair, genErr = s.issueTokens(ctx, tx, user, fingerprint)
		return genErr
	}); err != nil {
		return nil, nil, err
	}

	user.PasswordHash = ""
	return pair, user, nil
}

// Refresh validates a refresh token against its backing record, rotates it
// transactionally, and returns a fresh pair. Any anomaly revokes the affected
// users' refresh tokens first and then surfaces as ErrInvalidCredentials
// (ErrInactiveUser for deactivated accounts): the caller never learns which
// check failed.
func (s *UserService) Refresh(ctx context.Context, refreshToken, userAgent string) (*TokenPair, error) {
	fingerprint := s.fingerprints.Fingerprint(userAgent)
	repo := s.repomanager.RefreshTokens(s.db)

	claims, err := s.tokens.ParseRefreshToken(refreshToken, true)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			// an expired token reaching this endpoint means the client kept
			// using a token past rotation; recover the signed claims without
			// expiry validation and revoke that user's sessions
			stale, parseErr := s.tokens.ParseRefreshToken(refreshToken, false)
			if parseErr != nil {
				return nil, common.ErrInvalidCredentials
			}
			if err := s.revoke(ctx, anomaly{
				reason:  common.ErrTokenExpired,
				userIDs: []int64{stale.UserID},
			}, fingerprint); err != nil {
				return nil, err
			}
			return nil, common.ErrInvalidCredentials
		}
		// forged signature, malformed token: nothing trustworthy to revoke by
		return nil, common.ErrInvalidCredentials
	}

	if claims.TokenType != token.TypeRefresh || claims.RefreshTokenID == "" {
		if err := s.revoke(ctx, anomaly{
			reason:  common.ErrInvalidToken,
			userIDs: []int64{claims.UserID},
		}, fingerprint); err != nil {
			return nil, err
		}
		return nil, common.ErrInvalidCredentials
	}

	record, err := repo.GetByID(ctx, claims.RefreshTokenID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// valid signature but the record is gone: the token was already
			// rotated once, so this is a replay of a stolen or cached token
			if err := s.revoke(ctx, anomaly{
				reason:  common.ErrInvalidCredentials,
				userIDs: []int64{claims.UserID},
			}, fingerprint); err != nil {
				return nil, err
			}
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading refresh token record: %w", err)
	}

	if record.UserID != claims.UserID {
		// a signed token pointing at another user's record should be
		// impossible without the signing secret
		if err := s.revoke(ctx, anomaly{
			reason:  common.ErrSecretLeakSuspected,
			userIDs: []int64{claims.UserID, record.UserID},
		}, fingerprint); err != nil {
			return nil, err
		}
		return nil, common.ErrInvalidCredentials
	}

	if record.DeviceFingerprint != fingerprint {
		s.logger.Warn(ctx, "refresh token used from a different device",
			"user_id", record.UserID, "fingerprint", fingerprint)
		if _, err := repo.DeleteByID(ctx, record.ID); err != nil {
			return nil, fmt.Errorf("error revoking refresh token: %w", err)
		}
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// a signed token for a user that does not exist
			if err := s.revoke(ctx, anomaly{
				reason:  common.ErrSecretLeakSuspected,
				userIDs: []int64{claims.UserID},
			}, fingerprint); err != nil {
				return nil, err
			}
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !user.IsActive {
		if err := s.revoke(ctx, anomaly{
			reason:  common.ErrInactiveUser,
			userIDs: []int64{user.ID},
		}, fingerprint); err != nil {
			return nil, err
		}
		return nil, common.ErrInactiveUser
	}

	var pair *TokenPair
	txErr := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		deleted, err := repoTx.DeleteByID(ctx, record.ID)
		if err != nil {
			return fmt.Errorf("error deleting rotated refresh token: %w", err)
		}
		if deleted == 0 {
			// the record was consumed between the check above and this
			// delete: a concurrent refresh of the same token won the
			// rotation, so this attempt is a replay
			return common.ErrorNotFound
		}
		var genErr error
		pair, genErr = s.issueTokens(ctx, tx, user, fingerprint)
		return genErr
	})
	if txErr != nil {
		if errors.Is(txErr, common.ErrorNotFound) {
			if err := s.revoke(ctx, anomaly{
				reason:  common.ErrInvalidCredentials,
				userIDs: []int64{user.ID},
			}, fingerprint); err != nil {
				return nil, err
			}
			return nil, common.ErrInvalidCredentials
		}
		return nil, txErr
	}
	return pair, nil
}

// Logout verifies the access token and drops the refresh records held by the
// calling device.
func (s *UserService) Logout(ctx context.Context, accessToken, userAgent string) error {
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return err
	}
	if claims.TokenType != token.TypeAccess {
		return common.ErrInvalidToken
	}

	fingerprint := s.fingerprints.Fingerprint(userAgent)
	n, err := s.repomanager.RefreshTokens(s.db).DeleteByUserIDAndDevice(ctx, claims.UserID, fingerprint)
	if err != nil {
		return fmt.Errorf("error deleting refresh tokens: %w", err)
	}

	s.logger.Info(ctx, "user logged out", "user_id", claims.UserID, "sessions_closed", n)
	return nil
}

// Register creates a new active user. A duplicate email yields
// common.ErrUserExists.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		IsActive:     true,
		PasswordHash: passwordHash,
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrUserExists) {
			return nil, common.ErrUserExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	created.PasswordHash = ""
	return created, nil
}

// GetUserByID returns the user profile for the given id.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// ListUsers returns user profiles ordered by id. limit<=0 means no limit.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return list, nil
}

// CountUsers returns the total number of users.
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return n, nil
}

// issueTokens persists a refresh record bound to the device and mints the
// token pair around it. Runs on whatever handle the caller passes, so login
// and rotation can keep it inside their transaction.
func (s *UserService) issueTokens(ctx context.Context, db dbx.DBTX, user *models.User, fingerprint string) (*TokenPair, error) {
	recordExpiry := time.Now().Add(s.refreshTokenValidityDuration).Add(RecordExpiryLeeway)

	record, err := s.repomanager.RefreshTokens(db).Create(ctx, user.ID, fingerprint, recordExpiry)
	if err != nil {
		return nil, fmt.Errorf("error creating refresh token record: %w", err)
	}

	access, accessIssued, err := s.tokens.GenerateAccessToken(user.ID, user.Email, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}

	refresh, refreshIssued, err := s.tokens.GenerateRefreshToken(user.ID, user.Email, record.ID, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenIssuedAt:   accessIssued,
		RefreshTokenIssuedAt:  refreshIssued,
		AccessTokenExpiresIn:  int64(s.accessTokenValidityDuration.Seconds()),
		RefreshTokenExpiresIn: int64(s.refreshTokenValidityDuration.Seconds()),
		TokenType:             "Bearer",
	}, nil
}

// revoke deletes every refresh record of the listed users and logs the
// anomaly. Failures propagate: a revocation that did not happen must never be
// reported as a clean rejection.
func (s *UserService) revoke(ctx context.Context, a anomaly, fingerprint string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	for _, id := range a.userIDs {
		n, err := repo.DeleteByUserID(ctx, id)
		if err != nil {
			s.logger.Error(ctx, "refresh token revocation failed",
				"user_id", id, "reason", a.reason.Error())
			return fmt.Errorf("error revoking refresh tokens: %w", err)
		}
		s.logger.Warn(ctx, "revoked refresh tokens after anomaly",
			"user_id", id, "reason", a.reason.Error(), "revoked", n, "fingerprint", fingerprint)
	}
	return nil
}

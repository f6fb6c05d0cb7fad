// Package postgres provides pgx-backed persistence for credentials and the
// synced-resource ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fitbitsync/internal/domain"
)

// CredentialStore persists the provider authentication record per user.
type CredentialStore struct {
	pool *pgxpool.Pool
}

// NewCredentialStore constructs a CredentialStore.
func NewCredentialStore(pool *pgxpool.Pool) *CredentialStore {
	return &CredentialStore{pool: pool}
}

// GetByUserID loads the credential record, or nil when the user has none.
func (s *CredentialStore) GetByUserID(ctx context.Context, userID string) (*domain.Credentials, error) {
	const query = `SELECT user_id, access_token, refresh_token, scope, token_type, expires_in, status, last_sync
        FROM provider_credentials WHERE user_id=$1`

	row := s.pool.QueryRow(ctx, query, userID)

	var creds domain.Credentials
	var lastSync *time.Time
	if err := row.Scan(&creds.UserID, &creds.AccessToken, &creds.RefreshToken, &creds.Scope, &creds.TokenType, &creds.ExpiresIn, &creds.Status, &lastSync); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	creds.LastSync = lastSync
	return &creds, nil
}

// UpdateTokens swaps the access/refresh token pair in a single statement so
// no reader can observe a half-updated pair.
func (s *CredentialStore) UpdateTokens(ctx context.Context, userID, accessToken, refreshToken string) error {
	const stmt = `UPDATE provider_credentials
        SET access_token=$2, refresh_token=$3, status=$4, updated_at=NOW()
        WHERE user_id=$1`

	tag, err := s.pool.Exec(ctx, stmt, userID, accessToken, refreshToken, domain.StatusValidToken)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no credential record for user %s", userID)
	}
	return nil
}

// UpdateStatus records the last known validation outcome.
func (s *CredentialStore) UpdateStatus(ctx context.Context, userID string, status domain.CredentialStatus) error {
	const stmt = `UPDATE provider_credentials SET status=$2, updated_at=NOW() WHERE user_id=$1`

	tag, err := s.pool.Exec(ctx, stmt, userID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no credential record for user %s", userID)
	}
	return nil
}

// UpdateLastSync stamps the completion time of a pass.
func (s *CredentialStore) UpdateLastSync(ctx context.Context, userID string, ts time.Time) error {
	const stmt = `UPDATE provider_credentials SET last_sync=$2, updated_at=NOW() WHERE user_id=$1`

	tag, err := s.pool.Exec(ctx, stmt, userID, ts.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no credential record for user %s", userID)
	}
	return nil
}

package sync

import (
	"context"
	"fmt"
	"time"

	"example.com/fitbitsync/internal/domain"
	"example.com/fitbitsync/internal/events"
	"example.com/fitbitsync/internal/observability"
)

// maxRecoveryAttempts bounds the recursive retry: one recovered re-run of
// the full pass, never more.
const maxRecoveryAttempts = 1

// recoverPass decides what to do with a failed pass. Expired tokens refresh
// and re-run the entire pass once with the new pair; a transiently
// unreachable provider re-runs once with the same token. Everything else
// downgrades the credential status (transient types excepted), publishes a
// failure event, and propagates.
func (o *Orchestrator) recoverPass(ctx context.Context, creds *domain.Credentials, cause error, attempt int, start time.Time) (*domain.SyncSummary, error) {
	perr, ok := domain.AsProviderError(cause)
	if !ok {
		observability.RecordSyncPass("error", o.now().Sub(start))
		return nil, cause
	}

	switch {
	case perr.Type == domain.ProviderErrorExpiredToken && attempt < maxRecoveryAttempts:
		if err := o.refreshTokens(ctx, creds); err != nil {
			observability.RecordSyncPass("refresh_failed", o.now().Sub(start))
			return nil, o.fail(ctx, creds.UserID, err)
		}
		return o.synchronizeUser(ctx, creds.UserID, attempt+1)

	case perr.Type == domain.ProviderErrorUnavailable && attempt < maxRecoveryAttempts:
		o.logger.Printf("provider unreachable, retrying pass once (user=%s): %v", creds.UserID, perr)
		return o.synchronizeUser(ctx, creds.UserID, attempt+1)

	default:
		observability.RecordSyncPass("failed", o.now().Sub(start))
		return nil, o.fail(ctx, creds.UserID, cause)
	}
}

// refreshTokens exchanges the refresh token for a new pair and persists it.
// The credential record is only touched when the exchange fully succeeds.
func (o *Orchestrator) refreshTokens(ctx context.Context, creds *domain.Credentials) error {
	pair, err := o.provider.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		observability.RecordTokenRefresh("error")
		return err
	}
	if err := o.credentials.UpdateTokens(ctx, creds.UserID, pair.AccessToken, pair.RefreshToken); err != nil {
		observability.RecordTokenRefresh("error")
		return fmt.Errorf("persist refreshed tokens: %w", err)
	}
	observability.RecordTokenRefresh("success")
	return nil
}

// fail finalizes an unrecoverable pass: status downgrade for non-transient
// types, one failure event with the numeric code, then the original error.
func (o *Orchestrator) fail(ctx context.Context, userID string, cause error) error {
	perr, ok := domain.AsProviderError(cause)
	if !ok {
		return cause
	}

	if !perr.Transient() {
		if err := o.credentials.UpdateStatus(ctx, userID, perr.CredentialStatus()); err != nil {
			o.logger.Printf("status update failed (user=%s): %v", userID, err)
		}
	}

	payload := events.SyncFailed{
		UserID:    userID,
		Code:      perr.Code(),
		ErrorType: string(perr.Type),
		Message:   perr.Message,
	}
	if err := o.publisher.Publish(ctx, events.TypeSyncFailed, payload, userID); err != nil {
		o.logger.Printf("failure event publish failed (user=%s): %v", userID, err)
	}

	return cause
}

// Unlink revokes the provider token and marks the credential record revoked.
func (o *Orchestrator) Unlink(ctx context.Context, userID string) error {
	creds, err := o.credentials.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if !creds.Linked() {
		return domain.ErrNoCredentials
	}

	if err := o.provider.Revoke(ctx, creds.AccessToken); err != nil {
		return err
	}
	if err := o.credentials.UpdateStatus(ctx, userID, domain.StatusRevoked); err != nil {
		return fmt.Errorf("mark credentials revoked: %w", err)
	}
	return nil
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials is returned when a user has no stored provider link
	// or the stored record carries no access token.
	ErrNoCredentials = errors.New("no provider credentials for user")
	// ErrValidation flags malformed or missing caller input.
	ErrValidation = errors.New("validation failed")
)

// ProviderErrorType classifies upstream provider failures.
type ProviderErrorType string

const (
	ProviderErrorExpiredToken  ProviderErrorType = "expired_token"
	ProviderErrorInvalidToken  ProviderErrorType = "invalid_token"
	ProviderErrorInvalidGrant  ProviderErrorType = "invalid_grant"
	ProviderErrorInvalidClient ProviderErrorType = "invalid_client"
	// ProviderErrorRateLimited is the provider's "system" error, raised when
	// the per-user request quota is exhausted.
	ProviderErrorRateLimited ProviderErrorType = "system"
	ProviderErrorInternal    ProviderErrorType = "internal_error"
	// ProviderErrorUnavailable covers transport-level failures reaching the
	// provider (connection refused, DNS, timeouts).
	ProviderErrorUnavailable ProviderErrorType = "client_error"
)

// ProviderError is a typed upstream failure surfaced by the provider client.
type ProviderError struct {
	Type    ProviderErrorType
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider error: %s", e.Type)
	}
	return fmt.Sprintf("provider error: %s: %s", e.Type, e.Message)
}

// Code maps the error type to the numeric code carried on failure events.
func (e *ProviderError) Code() int {
	switch e.Type {
	case ProviderErrorExpiredToken:
		return 1011
	case ProviderErrorInvalidToken:
		return 1012
	case ProviderErrorInvalidGrant:
		return 1021
	case ProviderErrorInvalidClient:
		return 1401
	case ProviderErrorRateLimited:
		return 1429
	default:
		return 1500
	}
}

// Transient reports whether the failure is expected to clear on its own.
// Transient failures never downgrade the stored credential status.
func (e *ProviderError) Transient() bool {
	switch e.Type {
	case ProviderErrorRateLimited, ProviderErrorInternal, ProviderErrorUnavailable:
		return true
	default:
		return false
	}
}

// CredentialStatus maps the error type onto the status stored on the
// credential record for non-transient failures.
func (e *ProviderError) CredentialStatus() CredentialStatus {
	switch e.Type {
	case ProviderErrorExpiredToken:
		return StatusExpiredToken
	case ProviderErrorInvalidToken:
		return StatusInvalidToken
	case ProviderErrorInvalidGrant:
		return StatusInvalidGrant
	case ProviderErrorInvalidClient:
		return StatusInvalidClient
	default:
		return StatusInvalidToken
	}
}

// AsProviderError unwraps err into a *ProviderError if one is present.
func AsProviderError(err error) (*ProviderError, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

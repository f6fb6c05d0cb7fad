// Package domain defines the business model for provider data synchronization.
package domain

import (
	"strings"
	"time"
)

// CredentialStatus reflects the last known validation outcome for a provider link.
type CredentialStatus string

const (
	StatusValidToken    CredentialStatus = "valid_token"
	StatusExpiredToken  CredentialStatus = "expired_token"
	StatusInvalidToken  CredentialStatus = "invalid_token"
	StatusInvalidGrant  CredentialStatus = "invalid_grant"
	StatusInvalidClient CredentialStatus = "invalid_client"
	StatusRevoked       CredentialStatus = "revoked"
)

// Credentials is the stored provider authentication record for one user.
type Credentials struct {
	UserID       string           `json:"user_id"`
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	Scope        string           `json:"scope"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"`
	Status       CredentialStatus `json:"status"`
	LastSync     *time.Time       `json:"last_sync,omitempty"`
}

// Linked reports whether the record carries a usable access token.
func (c *Credentials) Linked() bool {
	return c != nil && c.AccessToken != ""
}

// Provider scope codes granted by the user to the link. A category whose
// scope is absent is skipped entirely during a sync pass.
const (
	ScopeActivity  = "ract"
	ScopeWeight    = "rwei"
	ScopeSleep     = "rsle"
	ScopeHeartRate = "rhr"
	ScopeSettings  = "rset"
)

// ScopeSet is the set of scope codes parsed from a credential record.
type ScopeSet map[string]struct{}

// ParseScopes splits a space-separated scope string into a ScopeSet.
func ParseScopes(raw string) ScopeSet {
	out := make(ScopeSet)
	for _, token := range strings.Split(raw, " ") {
		token = strings.TrimSpace(token)
		if token != "" {
			out[token] = struct{}{}
		}
	}
	return out
}

// Has reports whether the scope code was granted.
func (s ScopeSet) Has(scope string) bool {
	_, ok := s[scope]
	return ok
}

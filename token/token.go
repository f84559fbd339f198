// Package token implements the cached SSO bearer token.
package token

import (
	"encoding/json"
	"time"
)

// Token holds a bearer token obtained from the SSO authority.
type Token struct {
	Value string `json:"value"`

	// ExpiresAt is the instant from which the token must no longer be served.
	// It already has the expiry margin subtracted from the authority's expires_in.
	// The zero value means there is no usable token (empty slot).
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenFromJSON creates token from json.
func NewTokenFromJSON(buf []byte) (Token, error) {
	var t Token
	err := json.Unmarshal(buf, &t)
	if err != nil {
		return t, err
	}
	return t, nil
}

// ExportJSON exports token as json.
func (t Token) ExportJSON() ([]byte, error) {
	return json.Marshal(t)
}

// IsEmpty reports whether the slot holds no token.
func (t Token) IsEmpty() bool {
	return t.Value == "" || t.ExpiresAt.IsZero()
}

// IsValid checks whether token can be served at instant now.
// A token is stale exactly at its ExpiresAt boundary.
func (t Token) IsValid(now time.Time) bool {
	return !t.IsEmpty() && now.Before(t.ExpiresAt)
}

// Remaining reports how long the token can still be served.
func (t Token) Remaining(now time.Time) time.Duration {
	if t.IsEmpty() {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}

// Expire expires the token.
func (t *Token) Expire() {
	t.ExpiresAt = expired
}

// SetExpiration schedules token expiration time.
func (t *Token) SetExpiration(expiresAt time.Time) {
	t.ExpiresAt = expiresAt
}

var expired = time.Time{}

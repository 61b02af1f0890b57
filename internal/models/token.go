// Package models defines the data structures exchanged with the Threads API
// and stored by the gateway.
package models

import "time"

// TokenPayload is an OAuth token as returned by the Threads token endpoint.
type TokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope,omitempty"`
}

// StoredToken associates a token payload with the user it belongs to and the
// moment the gateway obtained it.
type StoredToken struct {
	UserID     string       `json:"user_id"`
	Token      TokenPayload `json:"token"`
	ObtainedAt time.Time    `json:"obtained_at"`
}

// ExpiresAt returns the absolute expiry time derived from ObtainedAt and the
// token's expires_in. The second return value is false when the token carries
// no expiry.
func (s *StoredToken) ExpiresAt() (time.Time, bool) {
	if s.Token.ExpiresIn <= 0 {
		return time.Time{}, false
	}
	return s.ObtainedAt.Add(time.Duration(s.Token.ExpiresIn) * time.Second), true
}

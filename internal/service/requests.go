package service

import (
	"time"

	apperrors "threads-zapier/internal/common/errors"
	"threads-zapier/internal/models"
)

// ExchangeRequest asks to trade an authorization code for a token.
type ExchangeRequest struct {
	Code        string `json:"code"`
	UserID      string `json:"user_id"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

// Validate checks required fields.
func (r *ExchangeRequest) Validate() error {
	if r.Code == "" {
		return apperrors.ValidationError("code is required")
	}
	if r.UserID == "" {
		return apperrors.ValidationError("user_id is required")
	}
	return nil
}

// RefreshRequest asks to refresh a user's token. RefreshToken is optional;
// when absent the stored refresh token is used.
type RefreshRequest struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Validate checks required fields.
func (r *RefreshRequest) Validate() error {
	if r.UserID == "" {
		return apperrors.ValidationError("user_id is required")
	}
	return nil
}

// CreateThreadRequest asks to publish a thread for a user.
type CreateThreadRequest struct {
	UserID    string   `json:"user_id"`
	Text      string   `json:"text"`
	ReplyToID string   `json:"reply_to_id,omitempty"`
	MediaURLs []string `json:"media_urls,omitempty"`
}

// Validate checks required fields.
func (r *CreateThreadRequest) Validate() error {
	if r.UserID == "" {
		return apperrors.ValidationError("user_id is required")
	}
	if r.Text == "" {
		return apperrors.ValidationError("text is required")
	}
	return nil
}

// NewThreadsRequest asks for threads published since a given moment.
// A nil Limit means the default poll limit.
type NewThreadsRequest struct {
	UserID string     `json:"user_id"`
	Since  *time.Time `json:"since,omitempty"`
	Limit  *int       `json:"limit,omitempty"`
}

// Validate checks required fields and the limit range.
func (r *NewThreadsRequest) Validate() error {
	if r.UserID == "" {
		return apperrors.ValidationError("user_id is required")
	}
	if r.Limit != nil && (*r.Limit < 1 || *r.Limit > 100) {
		return apperrors.BadRequestError("limit must be between 1 and 100")
	}
	return nil
}

// TokenResponse is the token body returned by every OAuth operation.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresIn    int       `json:"expires_in,omitempty"`
	TokenType    string    `json:"token_type"`
	Scope        string    `json:"scope,omitempty"`
	ObtainedAt   time.Time `json:"obtained_at"`
}

func tokenResponseFrom(stored *models.StoredToken) *TokenResponse {
	return &TokenResponse{
		AccessToken:  stored.Token.AccessToken,
		RefreshToken: stored.Token.RefreshToken,
		ExpiresIn:    stored.Token.ExpiresIn,
		TokenType:    stored.Token.TokenType,
		Scope:        stored.Token.Scope,
		ObtainedAt:   stored.ObtainedAt,
	}
}

// CreateThreadResponse wraps a freshly published thread.
type CreateThreadResponse struct {
	Thread *models.Thread `json:"thread"`
}

// NewThreadsResponse carries a polling window of threads and the moment the
// poll completed, which the caller passes back as the next since.
type NewThreadsResponse struct {
	Threads      []models.Thread `json:"threads"`
	LastPolledAt time.Time       `json:"last_polled_at"`
}

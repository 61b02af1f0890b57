// Package service holds the gateway's business rules: which token a call
// uses, when a stored token is required, and what each Zapier operation
// returns. It owns no wire concerns on either side.
package service

import (
	"context"
	"time"

	apperrors "threads-zapier/internal/common/errors"
	"threads-zapier/internal/common/logging"
	"threads-zapier/internal/models"
	"threads-zapier/internal/storage"
)

// DefaultPollLimit is applied when a new-threads request omits limit.
const DefaultPollLimit = 20

// ThreadsAPI is the upstream surface the service depends on.
type ThreadsAPI interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (models.TokenPayload, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (models.TokenPayload, error)
	CreateThread(ctx context.Context, accessToken, text, replyToID string, mediaURLs []string) (*models.Thread, error)
	RecentThreads(ctx context.Context, accessToken, userID string, since *time.Time, limit int) ([]models.Thread, error)
	AuthorizeURL(state, redirectURI, scope string) string
}

// Service orchestrates token storage and upstream calls.
type Service struct {
	client ThreadsAPI
	store  storage.TokenStore
	logger logging.Logger
}

// New creates a Service.
func New(client ThreadsAPI, store storage.TokenStore, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Service{client: client, store: store, logger: logger}
}

// ExchangeToken trades an authorization code for a token and stores it for
// the user. The response's obtained_at is the store's timestamp.
func (s *Service) ExchangeToken(ctx context.Context, req *ExchangeRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	token, err := s.client.ExchangeCode(ctx, req.Code, req.RedirectURI)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Save(ctx, req.UserID, token)
	if err != nil {
		return nil, apperrors.InternalError("failed to save token", err)
	}

	s.logger.Info("Token exchanged",
		logging.Field{Key: "user_id", Value: req.UserID},
	)
	return tokenResponseFrom(stored), nil
}

// RefreshToken refreshes the user's token. An explicit refresh token in the
// request wins over the stored one; a registered token must exist either way.
func (s *Service) RefreshToken(ctx context.Context, req *RefreshRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.requireToken(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	refreshToken := req.RefreshToken
	if refreshToken == "" {
		refreshToken = stored.Token.RefreshToken
	}
	if refreshToken == "" {
		return nil, apperrors.BadRequestError("refresh token not available")
	}

	token, err := s.client.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Save(ctx, req.UserID, token)
	if err != nil {
		return nil, apperrors.InternalError("failed to save token", err)
	}

	s.logger.Info("Token refreshed",
		logging.Field{Key: "user_id", Value: req.UserID},
	)
	return tokenResponseFrom(updated), nil
}

// AuthorizeURL builds the upstream authorize URL. All parameters optional.
func (s *Service) AuthorizeURL(state, redirectURI, scope string) string {
	return s.client.AuthorizeURL(state, redirectURI, scope)
}

// CreateThread publishes a thread for the user. A stored token is required
// before any upstream call happens.
func (s *Service) CreateThread(ctx context.Context, req *CreateThreadRequest) (*CreateThreadResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.requireToken(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	thread, err := s.client.CreateThread(ctx, stored.Token.AccessToken, req.Text, req.ReplyToID, req.MediaURLs)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Thread created",
		logging.Field{Key: "user_id", Value: req.UserID},
		logging.Field{Key: "thread_id", Value: thread.ID},
	)
	return &CreateThreadResponse{Thread: thread}, nil
}

// FetchNewThreads polls for threads published since the request's since.
// LastPolledAt is taken before the upstream call so a poller using it as the
// next since cannot miss posts created mid-poll.
func (s *Service) FetchNewThreads(ctx context.Context, req *NewThreadsRequest) (*NewThreadsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.requireToken(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	limit := DefaultPollLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	polledAt := time.Now().UTC()
	threads, err := s.client.RecentThreads(ctx, stored.Token.AccessToken, req.UserID, req.Since, limit)
	if err != nil {
		return nil, err
	}

	return &NewThreadsResponse{Threads: threads, LastPolledAt: polledAt}, nil
}

func (s *Service) requireToken(ctx context.Context, userID string) (*models.StoredToken, error) {
	stored, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.InternalError("failed to load token", err)
	}
	if stored == nil {
		return nil, apperrors.NotFoundError("No token registered for user")
	}
	return stored, nil
}

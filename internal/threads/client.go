// Package threads is the HTTP adapter for the Threads Graph API. It owns all
// upstream wire concerns: request shaping, auth headers, timeout and
// circuit-breaker handling, and translation of every failure into an upstream
// AppError so callers deal with exactly one error channel.
package threads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"threads-zapier/internal/circuitbreaker"
	apperrors "threads-zapier/internal/common/errors"
	"threads-zapier/internal/common/httpclient"
	"threads-zapier/internal/common/logging"
	"threads-zapier/internal/config"
	"threads-zapier/internal/models"
)

// Client talks to the Threads Graph API.
type Client struct {
	baseURL      string
	authorizeURL string
	clientID     string
	clientSecret string
	redirectURI  string
	scope        string
	httpClient   *http.Client
	breaker      *circuitbreaker.Breaker
	logger       logging.Logger
}

// NewClient builds a Client from configuration. All network calls share one
// timeout and one circuit breaker.
func NewClient(cfg *config.Config, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Client{
		baseURL:      cfg.ThreadsAPIBaseURL,
		authorizeURL: cfg.ThreadsAuthorizeURL,
		clientID:     cfg.ThreadsClientID,
		clientSecret: cfg.ThreadsClientSecret,
		redirectURI:  cfg.ThreadsRedirectURI,
		scope:        cfg.ThreadsScopes,
		httpClient:   httpclient.New(cfg.RequestTimeout()),
		breaker:      circuitbreaker.New("threads-api", circuitbreaker.DefaultConfig(), logger),
		logger:       logger,
	}
}

// ExchangeCode trades an authorization code for a token. A non-empty
// redirectURI overrides the configured default.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (models.TokenPayload, error) {
	if redirectURI == "" {
		redirectURI = c.redirectURI
	}

	form := url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}
	return c.requestToken(ctx, form)
}

// RefreshAccessToken trades a refresh token for a fresh token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (models.TokenPayload, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
	}
	return c.requestToken(ctx, form)
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (models.TokenPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token",
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return models.TokenPayload{}, apperrors.InternalError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token models.TokenPayload
	if err := c.do(req, &token); err != nil {
		return models.TokenPayload{}, err
	}
	// A token response without an access token must never reach the store.
	if token.AccessToken == "" {
		return models.TokenPayload{}, apperrors.UpstreamError(http.StatusInternalServerError,
			map[string]interface{}{"error": "upstream token response missing access_token"})
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}
	return token, nil
}

// CreateThread publishes a new thread on behalf of the token's user.
// Optional fields are omitted from the request when absent.
func (c *Client) CreateThread(ctx context.Context, accessToken, text, replyToID string, mediaURLs []string) (*models.Thread, error) {
	payload := map[string]interface{}{"text": text}
	if replyToID != "" {
		payload["reply_to_id"] = replyToID
	}
	if len(mediaURLs) > 0 {
		payload["media_urls"] = mediaURLs
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.InternalError("failed to marshal thread payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1.0/threads",
		bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.InternalError("failed to build thread request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var raw map[string]interface{}
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}

	thread, err := threadFromItem(raw)
	if err != nil {
		return nil, err
	}
	// Upstream omits these for freshly created posts at times.
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = time.Now().UTC()
	}
	if thread.Text == "" {
		thread.Text = text
	}
	return thread, nil
}

// RecentThreads lists the user's threads, newest window first. since is
// optional; limit is passed through verbatim. A malformed item in the
// response fails the whole call.
func (c *Client) RecentThreads(ctx context.Context, accessToken, userID string, since *time.Time, limit int) ([]models.Thread, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if since != nil {
		query.Set("since", since.UTC().Format(time.RFC3339))
	}

	endpoint := fmt.Sprintf("%s/v1.0/users/%s/threads?%s", c.baseURL, url.PathEscape(userID), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.InternalError("failed to build list request", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var raw struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}

	threads := make([]models.Thread, 0, len(raw.Data))
	for _, item := range raw.Data {
		thread, err := threadFromItem(item)
		if err != nil {
			return nil, err
		}
		threads = append(threads, *thread)
	}
	return threads, nil
}

// AuthorizeURL builds the upstream OAuth authorize URL. No network call.
// Empty state is omitted entirely; redirectURI and scope fall back to the
// configured defaults.
func (c *Client) AuthorizeURL(state, redirectURI, scope string) string {
	if redirectURI == "" {
		redirectURI = c.redirectURI
	}
	if scope == "" {
		scope = c.scope
	}

	conf := oauth2.Config{
		ClientID:    c.clientID,
		RedirectURL: redirectURI,
		// Threads uses comma-separated scopes, so the configured value is
		// passed through as a single element rather than split.
		Scopes:   []string{scope},
		Endpoint: oauth2.Endpoint{AuthURL: c.authorizeURL},
	}
	return conf.AuthCodeURL(state)
}

// do executes the request through the circuit breaker and decodes a JSON
// success body into out. Every failure comes back as an upstream AppError.
func (c *Client) do(req *http.Request, out interface{}) error {
	var resp *http.Response
	err := c.breaker.Execute(func() error {
		var execErr error
		resp, execErr = c.httpClient.Do(req)
		if execErr != nil {
			return execErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			// Count upstream 5xx against the breaker without consuming
			// the body here.
			return fmt.Errorf("upstream returned %d", resp.StatusCode)
		}
		return nil
	})

	if circuitbreaker.IsOpen(err) {
		c.logger.Warn("Threads API circuit breaker open",
			logging.Field{Key: "url", Value: req.URL.Path},
		)
		return apperrors.UpstreamError(http.StatusServiceUnavailable,
			map[string]interface{}{"error": "threads API temporarily unavailable"})
	}
	if err != nil && resp == nil {
		status := http.StatusBadGateway
		if isTimeout(err) {
			status = http.StatusGatewayTimeout
		}
		c.logger.Error("Threads API request failed", err,
			logging.Field{Key: "url", Value: req.URL.Path},
			logging.Field{Key: "status", Value: status},
		)
		return apperrors.UpstreamError(status,
			map[string]interface{}{"error": err.Error()})
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return apperrors.UpstreamError(http.StatusBadGateway,
			map[string]interface{}{"error": readErr.Error()})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Threads API returned error status",
			logging.Field{Key: "url", Value: req.URL.Path},
			logging.Field{Key: "status", Value: resp.StatusCode},
		)
		return apperrors.UpstreamError(resp.StatusCode, parseErrorBody(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.UpstreamError(http.StatusInternalServerError,
			map[string]interface{}{"error": "invalid JSON in upstream response"})
	}
	return nil
}

// parseErrorBody keeps the upstream JSON error intact, or wraps a non-JSON
// body under a raw key so nothing upstream said is lost.
func parseErrorBody(body []byte) map[string]interface{} {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		return payload
	}
	return map[string]interface{}{"raw": string(body)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// threadFromItem maps one upstream item to a Thread. A missing id or an
// unparseable created_at makes the item malformed.
func threadFromItem(item map[string]interface{}) (*models.Thread, error) {
	id, _ := item["id"].(string)
	if id == "" {
		return nil, apperrors.UpstreamError(http.StatusInternalServerError,
			map[string]interface{}{"error": "upstream item missing id", "item": item})
	}

	thread := &models.Thread{ID: id}
	if text, ok := item["text"].(string); ok {
		thread.Text = text
	}
	if authorID, ok := item["author_id"].(string); ok {
		thread.AuthorID = authorID
	}
	if permalink, ok := item["permalink"].(string); ok {
		thread.Permalink = permalink
	}
	if createdAt, ok := item["created_at"].(string); ok && createdAt != "" {
		parsed, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, apperrors.UpstreamError(http.StatusInternalServerError,
				map[string]interface{}{"error": "upstream item has malformed created_at", "item": item})
		}
		thread.CreatedAt = parsed
	}
	return thread, nil
}

// parseTimestamp accepts RFC3339 and the bare variant without a zone that
// the Graph API emits occasionally.
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "threads-zapier/internal/common/errors"
	"threads-zapier/internal/config"
	"threads-zapier/internal/models"
	"threads-zapier/internal/service"
)

// stubService scripts the service layer per test.
type stubService struct {
	exchangeResp *service.TokenResponse
	exchangeErr  error
	refreshResp  *service.TokenResponse
	refreshErr   error
	createResp   *service.CreateThreadResponse
	createErr    error
	fetchResp    *service.NewThreadsResponse
	fetchErr     error

	lastExchange *service.ExchangeRequest
	lastRefresh  *service.RefreshRequest
	lastFetch    *service.NewThreadsRequest
}

func (s *stubService) ExchangeToken(_ context.Context, req *service.ExchangeRequest) (*service.TokenResponse, error) {
	s.lastExchange = req
	return s.exchangeResp, s.exchangeErr
}

func (s *stubService) RefreshToken(_ context.Context, req *service.RefreshRequest) (*service.TokenResponse, error) {
	s.lastRefresh = req
	return s.refreshResp, s.refreshErr
}

func (s *stubService) AuthorizeURL(state, redirectURI, scope string) string {
	u := "https://threads.net/oauth/authorize?client_id=client-id"
	if state != "" {
		u += "&state=" + url.QueryEscape(state)
	}
	return u
}

func (s *stubService) CreateThread(_ context.Context, req *service.CreateThreadRequest) (*service.CreateThreadResponse, error) {
	return s.createResp, s.createErr
}

func (s *stubService) FetchNewThreads(_ context.Context, req *service.NewThreadsRequest) (*service.NewThreadsResponse, error) {
	s.lastFetch = req
	return s.fetchResp, s.fetchErr
}

func newTestHandlers(stub *stubService, verificationToken string) *Handlers {
	cfg := &config.Config{ZapierVerificationToken: verificationToken}
	return New(stub, cfg, nil)
}

func doRequest(h *Handlers, method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil && headers["Content-Type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandlers(&stubService{}, "")

	rec := doRequest(h, http.MethodGet, "/healthz", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestAuthorizeRedirects(t *testing.T) {
	h := newTestHandlers(&stubService{}, "")

	rec := doRequest(h, http.MethodGet, "/oauth/authorize?state=xyz", nil, nil)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "state=xyz")
}

func TestOAuthExchangeSuccess(t *testing.T) {
	stub := &stubService{
		exchangeResp: &service.TokenResponse{
			AccessToken: "tok",
			TokenType:   "Bearer",
			ObtainedAt:  time.Now().UTC(),
		},
	}
	h := newTestHandlers(stub, "")

	rec := doRequest(h, http.MethodPost, "/oauth/exchange",
		[]byte(`{"code":"abc","user_id":"u1"}`), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tok", decodeBody(t, rec)["access_token"])
	require.NotNil(t, stub.lastExchange)
	assert.Equal(t, "u1", stub.lastExchange.UserID)
}

func TestOAuthExchangeFormBody(t *testing.T) {
	stub := &stubService{
		exchangeResp: &service.TokenResponse{AccessToken: "tok", TokenType: "Bearer"},
	}
	h := newTestHandlers(stub, "")

	form := url.Values{"code": {"abc"}, "user_id": {"u1"}}
	rec := doRequest(h, http.MethodPost, "/oauth/exchange",
		[]byte(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.lastExchange)
	assert.Equal(t, "abc", stub.lastExchange.Code)
}

func TestOAuthExchangeValidationError(t *testing.T) {
	stub := &stubService{exchangeErr: apperrors.ValidationError("code is required")}
	h := newTestHandlers(stub, "")

	rec := doRequest(h, http.MethodPost, "/oauth/exchange",
		[]byte(`{"user_id":"u1"}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "code is required", decodeBody(t, rec)["detail"])
}

func TestInvalidJSONPayload(t *testing.T) {
	h := newTestHandlers(&stubService{}, "")

	rec := doRequest(h, http.MethodPost, "/oauth/exchange",
		[]byte(`{not json`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON payload", decodeBody(t, rec)["detail"])
}

func TestOAuthRefreshNoToken(t *testing.T) {
	stub := &stubService{refreshErr: apperrors.NotFoundError("No token registered for user")}
	h := newTestHandlers(stub, "")

	rec := doRequest(h, http.MethodPost, "/oauth/refresh",
		[]byte(`{"user_id":"u1"}`), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No token registered for user", decodeBody(t, rec)["detail"])
}

func TestOAuthTokenAuthorizationCodeGrant(t *testing.T) {
	stub := &stubService{
		exchangeResp: &service.TokenResponse{AccessToken: "tok", TokenType: "Bearer"},
	}
	h := newTestHandlers(stub, "")

	form := url.Values{
		"grant_type": {"authorization_code"},
		"code":       {"abc"},
		"state":      {"u1"},
	}
	rec := doRequest(h, http.MethodPost, "/oauth/token",
		[]byte(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.lastExchange)
	assert.Equal(t, "u1", stub.lastExchange.UserID)
}

func TestOAuthTokenMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		form   url.Values
		detail string
	}{
		{
			"missing code",
			url.Values{"grant_type": {"authorization_code"}, "state": {"u1"}},
			"Missing authorization code",
		},
		{
			"missing state",
			url.Values{"grant_type": {"authorization_code"}, "code": {"abc"}},
			"Missing state parameter for user identification",
		},
		{
			"missing refresh token",
			url.Values{"grant_type": {"refresh_token"}, "user_id": {"u1"}},
			"Missing refresh token",
		},
		{
			"unsupported grant",
			url.Values{"grant_type": {"password"}},
			"Unsupported grant_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandlers(&stubService{}, "")

			rec := doRequest(h, http.MethodPost, "/oauth/token",
				[]byte(tt.form.Encode()),
				map[string]string{"Content-Type": "application/x-www-form-urlencoded"})

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.detail, decodeBody(t, rec)["detail"])
		})
	}
}

func TestOAuthTokenRefreshGrant(t *testing.T) {
	stub := &stubService{
		refreshResp: &service.TokenResponse{AccessToken: "tok2", TokenType: "Bearer"},
	}
	h := newTestHandlers(stub, "")

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {"r1"},
		"user_id":       {"u1"},
	}
	rec := doRequest(h, http.MethodPost, "/oauth/token",
		[]byte(form.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.lastRefresh)
	assert.Equal(t, "r1", stub.lastRefresh.RefreshToken)
}

func TestZapierVerificationMismatch(t *testing.T) {
	h := newTestHandlers(&stubService{}, "secret")

	rec := doRequest(h, http.MethodPost, "/zapier/actions/create-thread",
		[]byte(`{"user_id":"u1","text":"hello"}`),
		map[string]string{"X-Zapier-Token": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid Zapier verification token", decodeBody(t, rec)["detail"])
}

func TestZapierVerificationAcceptsEitherHeader(t *testing.T) {
	stub := &stubService{
		createResp: &service.CreateThreadResponse{
			Thread: &models.Thread{ID: "123", Text: "hello", CreatedAt: time.Now().UTC()},
		},
	}
	h := newTestHandlers(stub, "secret")

	for _, header := range []string{"X-Zapier-Signature", "X-Zapier-Token"} {
		rec := doRequest(h, http.MethodPost, "/zapier/actions/create-thread",
			[]byte(`{"user_id":"u1","text":"hello"}`),
			map[string]string{header: "secret"})
		assert.Equal(t, http.StatusOK, rec.Code, header)
	}
}

func TestZapierVerificationDisabledWhenUnconfigured(t *testing.T) {
	stub := &stubService{
		createResp: &service.CreateThreadResponse{
			Thread: &models.Thread{ID: "123", Text: "hello", CreatedAt: time.Now().UTC()},
		},
	}
	h := newTestHandlers(stub, "")

	rec := doRequest(h, http.MethodPost, "/zapier/actions/create-thread",
		[]byte(`{"user_id":"u1","text":"hello"}`), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateThreadSuccess(t *testing.T) {
	stub := &stubService{
		createResp: &service.CreateThreadResponse{
			Thread: &models.Thread{ID: "123", Text: "hello", CreatedAt: time.Now().UTC()},
		},
	}
	h := newTestHandlers(stub, "")

	rec := doRequest(h, http.MethodPost, "/zapier/actions/create-thread",
		[]byte(`{"user_id":"u1","text":"hello"}`), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	thread := body["thread"].(map[string]interface{})
	assert.Equal(t, "123", thread["id"])
	assert.Equal(t, "hello", thread["text"])
}

func TestCreateThreadUpstreamStatusPassesThrough(t *testing.T) {
	stub := &stubService{
		createErr: apperrors.UpstreamError(http.StatusUnauthorized,
			map[string]interface{}{"error": "invalid_token"}),
	}
	h := newTestHandlers(stub, "")

	rec := doRequest(h, http.MethodPost, "/zapier/actions/create-thread",
		[]byte(`{"user_id":"u1","text":"hello"}`), nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "invalid_token")
}

func TestNewThreadsParsesSinceAndLimit(t *testing.T) {
	stub := &stubService{
		fetchResp: &service.NewThreadsResponse{
			Threads:      []models.Thread{},
			LastPolledAt: time.Now().UTC(),
		},
	}
	h := newTestHandlers(stub, "")

	rec := doRequest(h, http.MethodPost, "/zapier/triggers/new-thread",
		[]byte(`{"user_id":"u1","since":"2026-08-01T00:00:00Z","limit":5}`), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.lastFetch)
	require.NotNil(t, stub.lastFetch.Since)
	assert.Equal(t, 2026, stub.lastFetch.Since.Year())
	require.NotNil(t, stub.lastFetch.Limit)
	assert.Equal(t, 5, *stub.lastFetch.Limit)
}

func TestNewThreadsBadSince(t *testing.T) {
	h := newTestHandlers(&stubService{}, "")

	rec := doRequest(h, http.MethodPost, "/zapier/triggers/new-thread",
		[]byte(`{"user_id":"u1","since":"yesterday"}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewThreadsInvalidLimit(t *testing.T) {
	stub := &stubService{
		fetchErr: apperrors.BadRequestError("limit must be between 1 and 100"),
	}
	h := newTestHandlers(stub, "")

	rec := doRequest(h, http.MethodPost, "/zapier/triggers/new-thread",
		[]byte(`{"user_id":"u1","limit":200}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "limit must be between 1 and 100", decodeBody(t, rec)["detail"])
}

func TestNotFoundJSON(t *testing.T) {
	h := newTestHandlers(&stubService{}, "")

	rec := doRequest(h, http.MethodGet, "/nope", nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeBody(t, rec)["detail"])
}

func TestMethodNotAllowedGuidance(t *testing.T) {
	h := newTestHandlers(&stubService{}, "")

	rec := doRequest(h, http.MethodGet, "/zapier/actions/create-thread", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.True(t, strings.Contains(decodeBody(t, rec)["detail"].(string), "Use POST"))

	rec = doRequest(h, http.MethodPost, "/healthz", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", decodeBody(t, rec)["detail"])
}

func TestZapierAuthTestProbe(t *testing.T) {
	h := newTestHandlers(&stubService{}, "secret")

	rec := doRequest(h, http.MethodGet, "/zapier/auth/test", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.True(t, strings.Contains(decodeBody(t, rec)["detail"].(string), "Use POST"))

	// POST has no handler behind the path and bypasses the shared-secret
	// check, so it stays a plain 404 even without a matching header.
	rec = doRequest(h, http.MethodPost, "/zapier/auth/test", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decodeBody(t, rec)["detail"])
}

func TestUnhandledErrorBecomesOpaque500(t *testing.T) {
	stub := &stubService{createErr: context.DeadlineExceeded}
	h := newTestHandlers(stub, "")

	rec := doRequest(h, http.MethodPost, "/zapier/actions/create-thread",
		[]byte(`{"user_id":"u1","text":"hello"}`), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeBody(t, rec)["detail"])
}

// Package handlers contains the HTTP transport layer. Handlers decode
// requests, call the service, and translate every error into the uniform
// {"detail": message} JSON body with the error's status code.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	apperrors "threads-zapier/internal/common/errors"
	"threads-zapier/internal/common/logging"
	"threads-zapier/internal/config"
	"threads-zapier/internal/service"
)

// ThreadsService is the service surface the handlers depend on.
type ThreadsService interface {
	ExchangeToken(ctx context.Context, req *service.ExchangeRequest) (*service.TokenResponse, error)
	RefreshToken(ctx context.Context, req *service.RefreshRequest) (*service.TokenResponse, error)
	AuthorizeURL(state, redirectURI, scope string) string
	CreateThread(ctx context.Context, req *service.CreateThreadRequest) (*service.CreateThreadResponse, error)
	FetchNewThreads(ctx context.Context, req *service.NewThreadsRequest) (*service.NewThreadsResponse, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	service ThreadsService
	config  *config.Config
	logger  logging.Logger
}

// New creates the handler set.
func New(svc ThreadsService, cfg *config.Config, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Handlers{service: svc, config: cfg, logger: logger}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound answers unknown paths with the JSON error shape.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
}

// MethodNotAllowed answers wrong-method requests. Zapier paths get a hint,
// since misconfigured Zaps probe them with GET.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	detail := "Method not allowed"
	if strings.HasPrefix(r.URL.Path, "/zapier/") {
		detail = "Use POST with a JSON payload for Zapier endpoints"
	}
	h.sendJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": detail})
}

// sendJSON writes a JSON response with the given status code.
func (h *Handlers) sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

// sendError maps an error to the uniform {"detail": message} body. Anything
// that is not an AppError becomes an opaque 500.
func (h *Handlers) sendError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			h.logger.Error("Request failed", err,
				logging.Field{Key: "path", Value: r.URL.Path},
				logging.Field{Key: "status", Value: status},
			)
		}
		h.sendJSON(w, status, map[string]string{"detail": appErr.Message})
		return
	}

	h.logger.Error("Unhandled error", err,
		logging.Field{Key: "path", Value: r.URL.Path},
	)
	h.sendJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal Server Error"})
}

// decodeJSON decodes a JSON request body into out. An empty body leaves out
// at its zero value; a malformed body is a validation error.
func decodeJSON(r *http.Request, out interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return apperrors.ValidationError("invalid JSON payload")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.ValidationError("invalid JSON payload")
	}
	return nil
}

// isForm reports whether the request carries a form-encoded body.
func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

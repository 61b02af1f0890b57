package handlers

import (
	"crypto/hmac"
	"net/http"
	"time"

	apperrors "threads-zapier/internal/common/errors"
	"threads-zapier/internal/service"
)

// VerifyZapier rejects requests whose shared-secret header does not match the
// configured verification token. A no-op when no token is configured.
func (h *Handlers) VerifyZapier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := h.config.ZapierVerificationToken
		if expected != "" {
			provided := r.Header.Get("X-Zapier-Signature")
			if provided == "" {
				provided = r.Header.Get("X-Zapier-Token")
			}
			if !hmac.Equal([]byte(provided), []byte(expected)) {
				h.sendError(w, r, apperrors.AuthError("Invalid Zapier verification token"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CreateThread is the Zapier action endpoint that publishes a thread.
func (h *Handlers) CreateThread(w http.ResponseWriter, r *http.Request) {
	req := &service.CreateThreadRequest{}
	if err := decodeJSON(r, req); err != nil {
		h.sendError(w, r, err)
		return
	}

	resp, err := h.service.CreateThread(r.Context(), req)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// newThreadsPayload is the wire shape of the trigger request; since arrives
// as an ISO-8601 string.
type newThreadsPayload struct {
	UserID string `json:"user_id"`
	Since  string `json:"since,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// NewThreads is the Zapier polling trigger endpoint.
func (h *Handlers) NewThreads(w http.ResponseWriter, r *http.Request) {
	var payload newThreadsPayload
	if err := decodeJSON(r, &payload); err != nil {
		h.sendError(w, r, err)
		return
	}

	req := &service.NewThreadsRequest{
		UserID: payload.UserID,
		Limit:  payload.Limit,
	}
	if payload.Since != "" {
		since, err := parseTimestamp(payload.Since)
		if err != nil {
			h.sendError(w, r, apperrors.ValidationError("since must be an ISO-8601 timestamp"))
			return
		}
		req.Since = &since
	}

	resp, err := h.service.FetchNewThreads(r.Context(), req)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// parseTimestamp accepts RFC3339 and the bare variant without a zone.
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}

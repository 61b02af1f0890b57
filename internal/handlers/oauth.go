package handlers

import (
	"net/http"

	apperrors "threads-zapier/internal/common/errors"
	"threads-zapier/internal/service"
)

// Authorize redirects the browser to the upstream OAuth authorize page.
// state, redirect_uri and scope are passed through from the query string.
func (h *Handlers) Authorize(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	location := h.service.AuthorizeURL(
		query.Get("state"),
		query.Get("redirect_uri"),
		query.Get("scope"),
	)
	http.Redirect(w, r, location, http.StatusFound)
}

// OAuthExchange trades an authorization code for a token. Accepts JSON or a
// form-encoded body.
func (h *Handlers) OAuthExchange(w http.ResponseWriter, r *http.Request) {
	req := &service.ExchangeRequest{}
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			h.sendError(w, r, apperrors.ValidationError("invalid form payload"))
			return
		}
		req.Code = r.PostFormValue("code")
		req.UserID = r.PostFormValue("user_id")
		req.RedirectURI = r.PostFormValue("redirect_uri")
	} else if err := decodeJSON(r, req); err != nil {
		h.sendError(w, r, err)
		return
	}

	resp, err := h.service.ExchangeToken(r.Context(), req)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// OAuthRefresh refreshes a user's token. Accepts JSON or a form-encoded body.
func (h *Handlers) OAuthRefresh(w http.ResponseWriter, r *http.Request) {
	req := &service.RefreshRequest{}
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			h.sendError(w, r, apperrors.ValidationError("invalid form payload"))
			return
		}
		req.UserID = r.PostFormValue("user_id")
		req.RefreshToken = r.PostFormValue("refresh_token")
	} else if err := decodeJSON(r, req); err != nil {
		h.sendError(w, r, err)
		return
	}

	resp, err := h.service.RefreshToken(r.Context(), req)
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// OAuthToken is the standard-shaped token endpoint Zapier's OAuth client
// posts to. It dispatches on grant_type and reuses the exchange and refresh
// flows. The state parameter doubles as the user identifier on the
// authorization_code grant.
func (h *Handlers) OAuthToken(w http.ResponseWriter, r *http.Request) {
	fields, err := h.readTokenFields(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	userID := fields["user_id"]
	if userID == "" {
		userID = fields["state"]
	}

	switch fields["grant_type"] {
	case "authorization_code":
		if fields["code"] == "" {
			h.sendError(w, r, apperrors.ValidationError("Missing authorization code"))
			return
		}
		if userID == "" {
			h.sendError(w, r, apperrors.ValidationError("Missing state parameter for user identification"))
			return
		}
		resp, err := h.service.ExchangeToken(r.Context(), &service.ExchangeRequest{
			Code:        fields["code"],
			UserID:      userID,
			RedirectURI: fields["redirect_uri"],
		})
		if err != nil {
			h.sendError(w, r, err)
			return
		}
		h.sendJSON(w, http.StatusOK, resp)

	case "refresh_token":
		if fields["refresh_token"] == "" {
			h.sendError(w, r, apperrors.ValidationError("Missing refresh token"))
			return
		}
		if userID == "" {
			h.sendError(w, r, apperrors.ValidationError("Missing state parameter for user identification"))
			return
		}
		resp, err := h.service.RefreshToken(r.Context(), &service.RefreshRequest{
			UserID:       userID,
			RefreshToken: fields["refresh_token"],
		})
		if err != nil {
			h.sendError(w, r, err)
			return
		}
		h.sendJSON(w, http.StatusOK, resp)

	default:
		h.sendError(w, r, apperrors.BadRequestError("Unsupported grant_type"))
	}
}

// readTokenFields collects the token-endpoint parameters from a form or JSON
// body.
func (h *Handlers) readTokenFields(r *http.Request) (map[string]string, error) {
	keys := []string{"grant_type", "code", "refresh_token", "state", "user_id", "redirect_uri"}
	fields := make(map[string]string, len(keys))

	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			return nil, apperrors.ValidationError("invalid form payload")
		}
		for _, key := range keys {
			fields[key] = r.PostFormValue(key)
		}
		return fields, nil
	}

	var body map[string]interface{}
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if value, ok := body[key].(string); ok {
			fields[key] = value
		}
	}
	return fields, nil
}

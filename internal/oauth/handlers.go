package oauth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/accounts-service/pkg/http/errors"
)

// HTTPHandlers exposes the flow over JSON.
type HTTPHandlers struct {
	flow   *Flow
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for the OAuth2 endpoints.
func NewHTTPHandlers(flow *Flow, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{flow: flow, logger: logger}
}

// Providers handles GET /api/accounts/oauth2/providers
func (h *HTTPHandlers) Providers(w http.ResponseWriter, r *http.Request) {
	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"providers": h.flow.Providers(),
	})
}

// Authorize handles POST /api/accounts/oauth2/authorize
func (h *HTTPHandlers) Authorize(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondOAuthError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Provider == "" || req.RedirectURI == "" {
		httperrors.RespondOAuthError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidRequest, "provider and redirect_uri are required")
		return
	}

	resp, err := h.flow.Authorize(r.Context(), req)
	if err != nil {
		h.respondFlowError(w, err)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, resp)
}

// Callback handles POST /api/accounts/oauth2/callback
func (h *HTTPHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	var req CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondOAuthError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Provider == "" || req.Code == "" || req.RedirectURI == "" {
		httperrors.RespondOAuthError(w, http.StatusBadRequest, httperrors.ErrCodeInvalidRequest, "provider, code and redirect_uri are required")
		return
	}

	resp, err := h.flow.Callback(r.Context(), req)
	if err != nil {
		h.respondFlowError(w, err)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandlers) respondFlowError(w http.ResponseWriter, err error) {
	var fe *FlowError
	if !errors.As(err, &fe) {
		h.logger.Error().Err(err).Msg("unclassified oauth2 error")
		fe = classify(StageIdle, err)
	}
	httperrors.RespondOAuthError(w, fe.Status, fe.Code, fe.Description)
}

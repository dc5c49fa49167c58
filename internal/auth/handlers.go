package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/accounts-service/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for authentication and profiles.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc: authSvc,
		logger:  logger,
	}
}

// Register handles POST /api/accounts/auth/register
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	user, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, verr.Message, verr.Field)
		case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
			httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyExists, err.Error())
		default:
			h.logger.Error().Err(err).Msg("registration failed")
			httperrors.RespondBadRequest(w, httperrors.ErrCodeRegistrationFailed, "Could not create user")
		}
		return
	}

	httperrors.RespondJSON(w, http.StatusCreated, user.Response())
}

// Login handles POST /api/accounts/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	tokens, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httperrors.RespondUnauthorized(w, httperrors.ErrCodeLoginFailed, "Invalid credentials")
			return
		}
		h.logger.Error().Err(err).Msg("login failed")
		httperrors.RespondInternalError(w, "Login failed")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, tokens)
}

// RefreshToken handles POST /api/token/refresh/
func (h *HTTPHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Refresh == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Refresh token required", "refresh")
		return
	}

	access, err := h.authSvc.RefreshToken(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			respondTokenError(w, err)
			return
		}
		h.logger.Error().Err(err).Msg("token refresh failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeRefreshFailed, "Token refresh failed")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]string{"access": access})
}

// VerifyToken handles POST /api/token/verify/
func (h *HTTPHandlers) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Token == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Token required", "token")
		return
	}

	if err := h.authSvc.VerifyToken(req.Token); err != nil {
		respondTokenError(w, err)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, struct{}{})
}

// GetMe handles GET /api/accounts/users/me (requires auth middleware)
func (h *HTTPHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	user, err := h.authSvc.GetUser(r.Context(), claims.UserID)
	if err != nil {
		h.respondUserLookupError(w, err)
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, user.Response())
}

// UpdateMe handles PUT /api/accounts/users/me (requires auth middleware)
func (h *HTTPHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	user, err := h.authSvc.UpdateProfile(r.Context(), claims.UserID, req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, verr.Message, verr.Field)
		case errors.Is(err, ErrEmailTaken):
			httperrors.RespondBadRequest(w, httperrors.ErrCodeEmailInUse, "Email address is already in use")
		case errors.Is(err, ErrUserNotFound):
			h.respondUserLookupError(w, err)
		default:
			h.logger.Error().Err(err).Int64("user_id", claims.UserID).Msg("profile update failed")
			httperrors.RespondBadRequest(w, httperrors.ErrCodeUpdateFailed, "Failed to update user profile")
		}
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, user.Response())
}

// DeleteMe handles DELETE /api/accounts/users/me (requires auth middleware)
func (h *HTTPHandlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "Invalid or missing token")
		return
	}

	if err := h.authSvc.DeleteUser(r.Context(), claims.UserID); err != nil {
		h.respondUserLookupError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetUser handles GET /api/accounts/users/{id}
func (h *HTTPHandlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "User not found")
		return
	}

	user, err := h.authSvc.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "User not found")
			return
		}
		h.logger.Error().Err(err).Int64("user_id", id).Msg("user lookup failed")
		httperrors.RespondInternalError(w, "User lookup failed")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, user.Response())
}

// respondUserLookupError handles failures resolving the caller's own account.
// A valid token for a deleted user is treated as unauthenticated.
func (h *HTTPHandlers) respondUserLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUserNotFound) {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "User not found")
		return
	}
	h.logger.Error().Err(err).Msg("user lookup failed")
	httperrors.RespondInternalError(w, "User lookup failed")
}

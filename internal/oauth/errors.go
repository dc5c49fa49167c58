package oauth

import (
	"errors"
	"fmt"
	"net/http"

	httperrors "github.com/gokatarajesh/accounts-service/pkg/http/errors"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrMissingCredentials  = errors.New("provider credentials not configured")
	ErrStateNotFound       = errors.New("invalid or expired state")
	ErrStateMismatch       = errors.New("state does not match provider or redirect_uri")
	ErrTokenExchangeFailed = errors.New("token exchange failed")
	ErrUserInfoFetchFailed = errors.New("user info fetch failed")
	ErrNoEmail             = errors.New("provider did not return an email address")
)

// UpstreamError describes a failed call to a provider endpoint. It matches
// Kind with errors.Is and keeps the response for logs.
type UpstreamError struct {
	Kind       error
	Provider   string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: %s: status %d", e.Kind, e.Provider, e.StatusCode)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Unauthorized reports whether the provider rejected the request with 401.
func (e *UpstreamError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// FlowError is a terminal failure of the authorize or callback step, ready
// to be rendered as {error, error_description}.
type FlowError struct {
	Code        string
	Description string
	Status      int
	Stage       Stage
	Err         error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth %s at %s: %v", e.Code, e.Stage, e.Err)
	}
	return fmt.Sprintf("oauth %s at %s", e.Code, e.Stage)
}

func (e *FlowError) Unwrap() error { return e.Err }

func flowError(stage Stage, code string, status int, description string, err error) *FlowError {
	return &FlowError{Code: code, Description: description, Status: status, Stage: stage, Err: err}
}

// classify maps an error raised at stage to its FlowError.
func classify(stage Stage, err error) *FlowError {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe
	}

	var up *UpstreamError
	switch {
	case errors.Is(err, ErrUnsupportedProvider), errors.Is(err, ErrMissingCredentials):
		return flowError(stage, httperrors.ErrCodeInvalidProvider, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, ErrStateNotFound):
		return flowError(stage, httperrors.ErrCodeInvalidState, http.StatusBadRequest, "State parameter is invalid or expired", err)
	case errors.Is(err, ErrStateMismatch):
		return flowError(stage, httperrors.ErrCodeStateMismatch, http.StatusBadRequest, "State parameters do not match", err)
	case errors.Is(err, ErrNoEmail):
		return flowError(stage, httperrors.ErrCodeNoEmail, http.StatusBadRequest, "Email address is required but not provided by the OAuth2 provider", err)
	case errors.As(err, &up):
		status := http.StatusBadRequest
		if up.Unauthorized() {
			status = http.StatusUnauthorized
		}
		return flowError(stage, httperrors.ErrCodeAPIError, status, "OAuth2 API request failed", err)
	default:
		return flowError(stage, httperrors.ErrCodeUnexpectedError, http.StatusBadRequest, "An unexpected error occurred during authentication", err)
	}
}

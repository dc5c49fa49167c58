package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound      = "not_found"
	ErrCodeAlreadyExists = "already_exists"

	// Business logic errors
	ErrCodeRegistrationFailed = "registration_failed"
	ErrCodeLoginFailed        = "login_failed"
	ErrCodeRefreshFailed      = "refresh_failed"
	ErrCodeUpdateFailed       = "update_failed"
	ErrCodeEmailInUse         = "email_in_use"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"

	// OAuth2 errors ({error, error_description} envelope)
	ErrCodeInvalidProvider     = "invalid_provider"
	ErrCodeInvalidState        = "invalid_state"
	ErrCodeStateMismatch       = "state_mismatch"
	ErrCodeTokenExchangeFailed = "token_exchange_failed"
	ErrCodeNoEmail             = "no_email"
	ErrCodeAPIError            = "api_error"
	ErrCodeUnexpectedError     = "unexpected_error"
)

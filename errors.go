package cramauth

import (
	"errors"
	"net/http"
)

// Error codes returned in JSON error payloads.
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeDuplicateAccount = "duplicate_account"
	ErrCodeSessionExpired   = "session_expired"
	ErrCodeInvalidCreds     = "invalid_credentials"
	ErrCodeInvalidToken     = "invalid_token"
	ErrCodeTokenExpired     = "token_expired"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeProviderMismatch = "provider_mismatch"
	ErrCodeAccountNotFound  = "account_not_found"
)

// AuthError is the error type surfaced to API clients. Field names the
// request field at fault, when one can be identified.
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Field   string `json:"field,omitempty"`
}

func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

func (e *AuthError) Error() string {
	return e.Message
}

// HTTPStatus maps an error code to its response status. Credential and
// token failures all collapse to 401 so callers cannot probe for accounts.
func (e *AuthError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeDuplicateAccount:
		return http.StatusConflict
	case ErrCodeSessionExpired:
		return http.StatusBadRequest
	case ErrCodeAccountNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidCreds, ErrCodeInvalidToken, ErrCodeTokenExpired, ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeProviderMismatch:
		// Not a failure for the caller: the UI must branch into the
		// account-linking path, so the handler responds 200 with a hint.
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// IsCode reports whether err is an AuthError with the given code.
func IsCode(err error, code string) bool {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// Store and provider sentinel errors. Store implementations return
// ErrNotFound for missing documents; identity providers return
// ErrProviderUserNotFound and ErrEmailInUse.
var (
	ErrNotFound             = errors.New("document not found")
	ErrProviderUserNotFound = errors.New("no provider account for user")
	ErrEmailInUse           = errors.New("email already in use")
)

package errors

import "fmt"

type ErrorCode string

const (
	ErrInvalidInput               ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData         ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrForbidden                  ErrorCode = "FORBIDDEN"
	ErrNotFound                   ErrorCode = "NOT_FOUND"
	ErrAlreadyExists              ErrorCode = "ALREADY_EXISTS"
	ErrOAuthStateInvalid          ErrorCode = "OAUTH_STATE_INVALID"
	ErrOAuthProvider              ErrorCode = "OAUTH_PROVIDER_ERROR"
	ErrCredentialUnavailable      ErrorCode = "CREDENTIAL_UNAVAILABLE"
	ErrExternalAPI                ErrorCode = "EXTERNAL_API_ERROR"
	ErrConfigMissing              ErrorCode = "CONFIGURATION_MISSING"
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"
	ErrInternalServer             ErrorCode = "INTERNAL_SERVER_ERROR"
)

// AppError carries an application error code alongside the underlying cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CodeOf returns the ErrorCode of err when it is an AppError,
// ErrInternalServer otherwise.
func CodeOf(err error) ErrorCode {
	if ae, ok := err.(*AppError); ok && ae != nil {
		return ae.Code
	}
	return ErrInternalServer
}

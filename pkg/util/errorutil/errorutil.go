package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes returned by the account flows.
const (
	CodeDefaultPasswordRejected = "DEFAULT_PASSWORD_REJECTED"
	CodeInvalidCredentials      = "INVALID_CREDENTIALS"
	CodeInvalidOrExpiredToken   = "INVALID_OR_EXPIRED_TOKEN"
	CodeTokenExpiredReissued    = "TOKEN_EXPIRED_REISSUED"
	CodeInvalidCurrentPassword  = "INVALID_CURRENT_PASSWORD"
	CodeDuplicateField          = "DUPLICATE_FIELD"
	CodeUnauthenticated         = "UNAUTHENTICATED"
	CodeUserNotFound            = "USER_NOT_FOUND"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeDependencyUnavailable   = "DEPENDENCY_UNAVAILABLE"
	CodeForbidden               = "FORBIDDEN"
	CodeNotFound                = "NOT_FOUND"
	CodeInternal                = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewDefaultPasswordRejected signals a login attempt with the distributed
// placeholder credential; the caller must go through password reset first.
func NewDefaultPasswordRejected() error {
	return NewDomainError(CodeDefaultPasswordRejected,
		"account not activated; check your email to set a password", http.StatusBadRequest, nil)
}

// NewInvalidCredentials covers both unknown email and wrong password,
// indistinguishable on purpose.
func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, "invalid credentials", http.StatusUnauthorized, nil)
}

// NewInvalidOrExpiredToken signals a reset token that does not exist.
func NewInvalidOrExpiredToken() error {
	return NewDomainError(CodeInvalidOrExpiredToken, "invalid or expired token", http.StatusBadRequest, nil)
}

// NewTokenExpiredReissued signals an expired reset token that was consumed
// and replaced by a freshly mailed one.
func NewTokenExpiredReissued() error {
	return NewDomainError(CodeTokenExpiredReissued,
		"token expired; a new recovery link has been sent", http.StatusBadRequest, nil)
}

// NewInvalidCurrentPassword signals a password change with a wrong current password.
func NewInvalidCurrentPassword() error {
	return NewDomainError(CodeInvalidCurrentPassword, "current password is invalid", http.StatusBadRequest, nil)
}

// NewDuplicateField signals an account-creation collision on a unique identity field.
func NewDuplicateField(field string) error {
	return NewDomainError(CodeDuplicateField,
		fmt.Sprintf("%s already in use", field), http.StatusConflict, map[string]any{"field": field})
}

// NewUnauthenticated signals a missing or unusable session.
func NewUnauthenticated(message string) error {
	if message == "" {
		message = "authentication required"
	}
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

// NewUserNotFound signals a missing user record, including the
// valid-token-but-missing-owner inconsistency.
func NewUserNotFound() error {
	return NewDomainError(CodeUserNotFound, "user not found", http.StatusNotFound, nil)
}

// NewValidationError reports structural payload violations with per-field details.
func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewDependencyUnavailable wraps store or transport failures.
func NewDependencyUnavailable(dependency string, err error) error {
	return &DomainError{
		Code:       CodeDependencyUnavailable,
		Message:    fmt.Sprintf("%s unavailable", dependency),
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource").(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// CodeOf extracts the domain error code, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) string {
	de := ToDomainError(err)
	if de == nil {
		return ""
	}
	return de.Code
}

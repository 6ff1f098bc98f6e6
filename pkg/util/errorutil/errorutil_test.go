package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestDomainErrorCodesAndStatuses(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewDefaultPasswordRejected(), CodeDefaultPasswordRejected, http.StatusBadRequest},
		{NewInvalidCredentials(), CodeInvalidCredentials, http.StatusUnauthorized},
		{NewInvalidOrExpiredToken(), CodeInvalidOrExpiredToken, http.StatusBadRequest},
		{NewTokenExpiredReissued(), CodeTokenExpiredReissued, http.StatusBadRequest},
		{NewInvalidCurrentPassword(), CodeInvalidCurrentPassword, http.StatusBadRequest},
		{NewDuplicateField("email"), CodeDuplicateField, http.StatusConflict},
		{NewUnauthenticated(""), CodeUnauthenticated, http.StatusUnauthorized},
		{NewUserNotFound(), CodeUserNotFound, http.StatusNotFound},
		{NewValidationError("bad", nil), CodeValidationFailed, http.StatusBadRequest},
		{NewDependencyUnavailable("mail transport", errors.New("down")), CodeDependencyUnavailable, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		de := ToDomainError(tc.err)
		assert.Equal(t, tc.code, de.Code)
		assert.Equal(t, tc.status, de.HTTPStatus)
	}
}

func TestDuplicateFieldDetails(t *testing.T) {
	de := ToDomainError(NewDuplicateField("cpf"))
	assert.Equal(t, "cpf", de.Details["field"])
}

func TestToDomainError_Foreign(t *testing.T) {
	de := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
}

func TestToDomainError_NoRows(t *testing.T) {
	de := ToDomainError(fmt.Errorf("lookup: %w", pgx.ErrNoRows))
	assert.Equal(t, CodeNotFound, de.Code)
}

func TestToDomainError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewInvalidCredentials())
	assert.Equal(t, CodeInvalidCredentials, CodeOf(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("tcp reset")
	err := NewDependencyUnavailable("user store", cause)
	assert.True(t, errors.Is(err, cause))
}

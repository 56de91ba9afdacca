package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("load property: %w", New(CodeNotFound, "property not found"))

	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to save")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to save: connection refused", err.Error())
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:    http.StatusBadRequest,
		CodeValidation:    http.StatusBadRequest,
		CodeInvalidInput:  http.StatusBadRequest,
		CodeUnauthorized:  http.StatusUnauthorized,
		CodeForbidden:     http.StatusForbidden,
		CodeNotFound:      http.StatusNotFound,
		CodeConflict:      http.StatusConflict,
		CodeUnprocessable: http.StatusUnprocessableEntity,
		CodeTimeout:       http.StatusGatewayTimeout,
		CodeInternal:      http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, HTTPStatus(code), "code %s", code)
	}
}

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	base := errors.New("row missing")
	appErr := &AppError{Code: "NOT_FOUND", Message: "order with id 42 not found", Status: http.StatusNotFound, Err: base}

	assert.Contains(t, appErr.Error(), "NOT_FOUND")
	assert.Contains(t, appErr.Error(), "order with id 42 not found")
	assert.ErrorIs(t, appErr, base)
}

func TestConstructors_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		is     error
	}{
		{"not found", NotFound("order", "42"), http.StatusNotFound, ErrNotFound},
		{"already exists", AlreadyExists("order", "payment_id", "pay_1"), http.StatusConflict, ErrAlreadyExists},
		{"invalid input", InvalidInput("cart is empty"), http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("missing session"), http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("administrators only"), http.StatusForbidden, ErrForbidden},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError, nil},
		{"conflict", Conflict("order already finalized"), http.StatusConflict, ErrConflict},
		{"service unavailable", ServiceUnavailable("gateway unreachable"), http.StatusServiceUnavailable, ErrServiceUnavail},
		{"payment verification", PaymentVerificationFailed("signature mismatch"), http.StatusBadRequest, ErrPaymentNotValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			if tt.is != nil {
				assert.ErrorIs(t, tt.err, tt.is)
			}
		})
	}
}

func TestHTTPStatus_SentinelsAndWrapped(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrPaymentNotValid))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrServiceUnavail))

	wrapped := fmt.Errorf("create order: %w", ErrInvalidInput)
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unknown")))
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "load order")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "load order")
}

package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"token revoked", ErrTokenRevoked, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"password change required", ErrPasswordChange, http.StatusForbidden},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"conflict", ErrConflict, http.StatusConflict},
		{"unknown", errors.New("something broke"), http.StatusInternalServerError},
		{"wrapped not found", Errorf("course %s: %w", "go-101", ErrNotFound), http.StatusNotFound},
		{"wrapped conflict", Errorf("email taken: %w", ErrConflict), http.StatusConflict},
		{"pg unique violation", &pgconn.PgError{Code: "23505"}, http.StatusConflict},
		{"pg foreign key violation", &pgconn.PgError{Code: "23503"}, http.StatusBadRequest},
		{"pg other", &pgconn.PgError{Code: "42P01"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromError(tt.err))
		})
	}
}

func TestErrorfWrapping(t *testing.T) {
	err := Errorf("user %s does not exist: %w", "abc", ErrBadRequest)
	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.Contains(t, err.Error(), "abc")
}

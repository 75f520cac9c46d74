package rest

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/examwatch/internal/domain"
)

func TestMapStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{"login error", http.StatusBadRequest, `{"error":"Please provide both username and password"}`, domain.ErrValidation, "Please provide both username and password"},
		{"invalid credentials", http.StatusUnauthorized, `{"error":"Invalid credentials"}`, domain.ErrUnauthorized, "Invalid credentials"},
		{"detail", http.StatusForbidden, `{"detail":"You do not have permission."}`, domain.ErrUnauthorized, "You do not have permission."},
		{"not found", http.StatusNotFound, `{"detail":"Not found."}`, domain.ErrNotFound, "Not found."},
		{"conflict", http.StatusConflict, ``, domain.ErrConflict, "Conflict"},
		{"unprocessable", http.StatusUnprocessableEntity, `{}`, domain.ErrValidation, "Unprocessable Entity"},
		{"server error html", http.StatusInternalServerError, "<html><body>boom</body></html>", domain.ErrTransport, "Internal Server Error"},
		{"server error text", http.StatusBadGateway, "upstream timeout\nmore", domain.ErrTransport, "upstream timeout"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := mapStatus("op", tc.status, []byte(tc.body))

			var apiErr *domain.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.ErrorIs(t, err, tc.kind)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.message, apiErr.Message)
		})
	}
}

func TestMapStatus_FieldErrors(t *testing.T) {
	t.Parallel()

	err := mapStatus("auth.Register", http.StatusBadRequest,
		[]byte(`{"username":["A user with that username already exists."],"password":"Passwords don't match"}`))

	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, map[string][]string{
		"password": {"Passwords don't match"},
		"username": {"A user with that username already exists."},
	}, vErr.Fields())

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Passwords don't match", domain.Message(err, "fallback"), "first field in sorted order")
}

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad request", BadRequest("nope"), http.StatusBadRequest, "bad_request"},
		{"role not registered", RoleNotRegistered("register first"), http.StatusTooEarly, "role_not_registered"},
		{"role inactive", RoleInactive("suspended"), http.StatusLocked, "role_inactive"},
		{"too many attempts", TooManyAttempts("slow down"), http.StatusTooManyRequests, "too_many_attempts"},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("gone")), http.StatusNotFound, "not_found"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal"},
		{"nil", nil, http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.status, StatusOf(tc.err))
			assert.Equal(t, tc.code, CodeOf(tc.err))
		})
	}
}

func TestWithCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("pg: connection refused")
	err := Internal("account lookup failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "account lookup failed", err.Error(), "caller-visible message hides the cause")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_Status(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("USER_NOT_FOUND"), http.StatusNotFound},
		{Conflict("EMAIL_ALREADY_EXISTS"), http.StatusBadRequest},
		{InvalidInput("INVALID_TOKEN"), http.StatusBadRequest},
		{Unauthorized("UNAUTHORIZED"), http.StatusUnauthorized},
		{Forbidden("FORBIDDEN"), http.StatusForbidden},
	}
	for _, tc := range cases {
		if got := tc.err.Status(); got != tc.want {
			t.Errorf("%s: Status() = %d, want %d", tc.err.Message, got, tc.want)
		}
	}
}

func TestAs_Wrapped(t *testing.T) {
	base := NotFound("ROLE_NOT_FOUND")
	wrapped := fmt.Errorf("loading role: %w", base)

	e, ok := As(wrapped)
	if !ok || e.Message != "ROLE_NOT_FOUND" {
		t.Errorf("As should unwrap, got %v %v", e, ok)
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsUnauthorized(wrapped) {
		t.Error("IsUnauthorized must not match a NotFound error")
	}
}

func TestAs_ForeignError(t *testing.T) {
	if _, ok := As(errors.New("plain")); ok {
		t.Error("a plain error is not a domain error")
	}
	if IsNotFound(nil) {
		t.Error("nil is not NotFound")
	}
}

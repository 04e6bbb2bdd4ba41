// internal/app/system/identity/client_test.go
package identity

import (
	"errors"
	"net/http"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusOK, nil},
		{http.StatusCreated, nil},
		{http.StatusNoContent, nil},
		{http.StatusConflict, ErrEmailExists},
		{http.StatusUnauthorized, ErrInvalidCredentials},
		{http.StatusForbidden, ErrInvalidCredentials},
		{http.StatusNotFound, ErrAccountNotFound},
		{http.StatusTooManyRequests, ErrUnavailable},
		{http.StatusInternalServerError, ErrUnavailable},
		{http.StatusBadGateway, ErrUnavailable},
		{http.StatusServiceUnavailable, ErrUnavailable},
	}
	for _, c := range cases {
		got := classifyStatus(c.code)
		if c.want == nil {
			if got != nil {
				t.Errorf("status %d: want nil, got %v", c.code, got)
			}
			continue
		}
		if !errors.Is(got, c.want) {
			t.Errorf("status %d: want %v, got %v", c.code, c.want, got)
		}
	}
}

func TestClassifyStatusUnexpected(t *testing.T) {
	err := classifyStatus(http.StatusTeapot)
	if err == nil {
		t.Fatal("want an error for status 418")
	}
	for _, sentinel := range []error{ErrEmailExists, ErrInvalidCredentials, ErrAccountNotFound, ErrUnavailable} {
		if errors.Is(err, sentinel) {
			t.Fatalf("status 418 must not map to %v", sentinel)
		}
	}
}

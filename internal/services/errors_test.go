package services_test

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"envision/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrProviderUnavailable, "questions", "generate", "provider failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrProviderUnavailable) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"questions", "generate", "provider failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.Wrap(services.ErrValidation, "vision", "submit", "answer required", nil), http.StatusBadRequest, "INVALID_REQUEST"},
		{services.Wrap(services.ErrNotFound, "vision", "load", "missing", nil), http.StatusNotFound, "NOT_FOUND"},
		{services.Wrap(services.ErrConflict, "vision", "process", "completed", nil), http.StatusConflict, "CONFLICT"},
		{services.Wrap(services.ErrProviderUnavailable, "questions", "generate", "", errors.New("503")), http.StatusBadGateway, "PROVIDER_UNAVAILABLE"},
		{services.Wrap(services.ErrUnauthorized, "auth", "", "", nil), http.StatusUnauthorized, "UNAUTHORIZED"},
		{fmt.Errorf("outer: %w", services.Wrap(services.ErrPersistence, "store", "save", "", nil)), http.StatusInternalServerError, "INTERNAL"},
		{errors.New("plain"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		if got := services.HTTPStatus(tc.err); got != tc.status {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
		if got := services.ErrorCode(tc.err); got != tc.code {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.code)
		}
	}
	if got := services.HTTPStatus(nil); got != http.StatusOK {
		t.Fatalf("HTTPStatus(nil) = %d", got)
	}
}

package rest

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{http.StatusOK, ""},
		{http.StatusNotModified, ""},
		{http.StatusBadRequest, ErrorClassClient},
		{http.StatusForbidden, ErrorClassClient},
		{http.StatusNotFound, ErrorClassClient},
		{http.StatusTooManyRequests, ErrorClassRateLimit},
		{http.StatusInternalServerError, ErrorClassServer},
		{http.StatusBadGateway, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{ErrorClass("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := shouldRetry(tt.class); got != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.expected)
			}
		})
	}
}

func TestNewAPIError(t *testing.T) {
	route := GetBans.MustCompile("1")

	err := newAPIError(route, http.StatusForbidden, []byte(`{"message": "Missing Permissions", "code": 50013}`))
	if err.Code != 50013 || err.Message != "Missing Permissions" {
		t.Errorf("newAPIError() = %+v, want code 50013 Missing Permissions", err)
	}
	if err.Class != ErrorClassClient {
		t.Errorf("Class = %q, want client", err.Class)
	}
	if err.Route != "GET /guilds/{guild.id}/bans" {
		t.Errorf("Route = %q", err.Route)
	}

	plain := newAPIError(route, http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	if plain.Message != "Bad Gateway" || plain.Code != 0 {
		t.Errorf("newAPIError() = %+v, want status text fallback", plain)
	}
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{
		StatusCode: 404,
		Class:      ErrorClassClient,
		Code:       10003,
		Message:    "Unknown Channel",
		Route:      "GET /channels/{channel.id}/messages",
	}

	want := "client error on GET /channels/{channel.id}/messages (status 404): Unknown Channel (code 10003)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := fmt.Errorf("fetch page: %w", &APIError{StatusCode: 503, Class: ErrorClassServer, Err: ErrRetryExhausted})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Error("errors.Is should find wrapped ErrRetryExhausted")
	}
	if !IsStatus(err, 503) {
		t.Error("IsStatus(err, 503) = false")
	}
	if IsStatus(errors.New("plain"), 503) {
		t.Error("IsStatus(plain, 503) = true")
	}
}

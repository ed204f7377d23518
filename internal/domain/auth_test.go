package domain

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequireAccessToken(t *testing.T) {
	if err := RequireAccessToken(&Config{Oura: OuraConfig{AccessToken: "token"}}); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	for name, config := range map[string]*Config{
		"nil config":  nil,
		"empty token": {},
		"blank token": {Oura: OuraConfig{AccessToken: "   "}},
	} {
		err := RequireAccessToken(config)
		if !errors.Is(err, ErrMissingAccessToken) {
			t.Errorf("%s: expected ErrMissingAccessToken, got: %v", name, err)
		}
	}
}

// TestNewAuthenticatedClient_SetsBearerHeader tests that every request
// carries the fixed bearer token.
func TestNewAuthenticatedClient_SetsBearerHeader(t *testing.T) {
	var headers []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = append(headers, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewAuthenticatedClient("abc123", 5*time.Second)
	if client.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", client.Timeout)
	}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
	}

	for i, header := range headers {
		if header != "Bearer abc123" {
			t.Errorf("Request %d: expected 'Bearer abc123', got '%s'", i+1, header)
		}
	}
}

// TestNewAuthenticatedClient_PreservesOriginalRequest tests that the caller's
// request is not mutated by the auth transport.
func TestNewAuthenticatedClient_PreservesOriginalRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := NewAuthenticatedClient("abc123", 0).Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()

	if req.Header.Get("Authorization") != "" {
		t.Error("Original request should not carry the Authorization header")
	}
}

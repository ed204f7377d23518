package domain

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// RequireAccessToken is the startup precondition for the tool gateway.
// Callers exit the process when it fails; nothing past it has a
// "missing credential" state.
func RequireAccessToken(config *Config) error {
	if config == nil || strings.TrimSpace(config.Oura.AccessToken) == "" {
		return fmt.Errorf("%w: set %s", ErrMissingAccessToken, AccessTokenEnv)
	}
	return nil
}

// NewAuthenticatedClient returns an HTTP client that sends
// "Authorization: Bearer <token>" on every request.
// The header is fixed at construction and the client is safe for concurrent use.
func NewAuthenticatedClient(token string, timeout time.Duration) *http.Client {
	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})

	return &http.Client{
		Timeout: timeout,
		Transport: &oauth2.Transport{
			Source: source,
			Base:   http.DefaultTransport,
		},
	}
}

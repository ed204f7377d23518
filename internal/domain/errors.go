package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// InvalidAPIKeyMessage is returned in place of the upstream body when the
// Oura API rejects the access token.
const InvalidAPIKeyMessage = "Invalid API key. Check your credential configuration."

// upstreamFallbackMessage is used when an upstream failure carries no message.
const upstreamFallbackMessage = "Failed to fetch data from Oura API"

// ErrMissingAccessToken is returned by the bootstrap when no Oura token is configured.
var ErrMissingAccessToken = errors.New("missing Oura access token")

// HTTPError represents a non-2xx response from the Oura API.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface for HTTPError.
func (e HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Message, e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(statusCode int, message string, body string) HTTPError {
	return HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Body:       body,
	}
}

// MapUpstreamError classifies a failed Oura API call.
// A 401 becomes InvalidRequest with a fixed hint; the upstream body is not exposed.
// Anything else becomes InternalError carrying the failure's own message.
func MapUpstreamError(err error) *Error {
	if err == nil {
		return nil
	}

	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
		return NewError(InvalidRequest, InvalidAPIKeyMessage)
	}

	message := err.Error()
	if strings.TrimSpace(message) == "" {
		message = upstreamFallbackMessage
	}
	return NewError(InternalError, message)
}

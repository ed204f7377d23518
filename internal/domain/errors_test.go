package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPError_Error(t *testing.T) {
	withBody := NewHTTPError(http.StatusBadRequest, "Bad Request", `{"detail":"bad date"}`)
	assert.Equal(t, `HTTP 400: Bad Request - {"detail":"bad date"}`, withBody.Error())

	withoutBody := NewHTTPError(http.StatusBadGateway, "Bad Gateway", "")
	assert.Equal(t, "HTTP 502: Bad Gateway", withoutBody.Error())
}

func TestMapUpstreamError_Unauthorized(t *testing.T) {
	bodies := []string{
		"",
		`{"detail":"Token expired"}`,
		"<html>unauthorized</html>",
	}

	for _, body := range bodies {
		mapped := MapUpstreamError(NewHTTPError(http.StatusUnauthorized, "Unauthorized", body))
		require.NotNil(t, mapped)
		assert.Equal(t, InvalidRequest, mapped.Code)
		assert.Equal(t, InvalidAPIKeyMessage, mapped.Message)
		assert.NotContains(t, mapped.Message, "Token expired")
	}
}

func TestMapUpstreamError_WrappedUnauthorized(t *testing.T) {
	err := fmt.Errorf("fetch sleep: %w", NewHTTPError(http.StatusUnauthorized, "Unauthorized", ""))

	mapped := MapUpstreamError(err)
	assert.Equal(t, InvalidRequest, mapped.Code)
}

func TestMapUpstreamError_OtherStatus(t *testing.T) {
	err := NewHTTPError(http.StatusTooManyRequests, "Too Many Requests", "slow down")

	mapped := MapUpstreamError(err)
	assert.Equal(t, InternalError, mapped.Code)
	assert.Equal(t, err.Error(), mapped.Message)
}

func TestMapUpstreamError_TransportFailure(t *testing.T) {
	mapped := MapUpstreamError(errors.New("dial tcp: connection refused"))
	assert.Equal(t, InternalError, mapped.Code)
	assert.Equal(t, "dial tcp: connection refused", mapped.Message)
}

func TestMapUpstreamError_EmptyMessageFallsBack(t *testing.T) {
	mapped := MapUpstreamError(errors.New("  "))
	assert.Equal(t, InternalError, mapped.Code)
	assert.Equal(t, "Failed to fetch data from Oura API", mapped.Message)
}

func TestMapUpstreamError_PassesDomainErrors(t *testing.T) {
	original := NewError(InvalidParams, "start_date is required")
	assert.Same(t, original, MapUpstreamError(original))
	assert.Nil(t, MapUpstreamError(nil))
}

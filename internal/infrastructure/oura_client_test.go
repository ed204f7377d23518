package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oura-mcp-server/internal/domain"
)

type capturedRequest struct {
	Method        string
	Path          string
	Query         map[string][]string
	Authorization string
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()

	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = append(captured, capturedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func newTestClient(baseURL string) *OuraClient {
	return NewOuraClient(baseURL+"/v2/", domain.NewAuthenticatedClient("test-token", 5*time.Second))
}

func TestOuraClient_Endpoints(t *testing.T) {
	tests := []struct {
		name string
		call func(c *OuraClient) (json.RawMessage, error)
		path string
	}{
		{
			name: "daily sleep",
			call: func(c *OuraClient) (json.RawMessage, error) {
				return c.GetDailySleep(context.Background(), "2024-01-01", "2024-01-07")
			},
			path: "/v2/usercollection/daily_sleep",
		},
		{
			name: "daily readiness",
			call: func(c *OuraClient) (json.RawMessage, error) {
				return c.GetDailyReadiness(context.Background(), "2024-01-01", "2024-01-07")
			},
			path: "/v2/usercollection/daily_readiness",
		},
		{
			name: "daily activity",
			call: func(c *OuraClient) (json.RawMessage, error) {
				return c.GetDailyActivity(context.Background(), "2024-01-01", "2024-01-07")
			},
			path: "/v2/usercollection/daily_activity",
		},
		{
			name: "heart rate",
			call: func(c *OuraClient) (json.RawMessage, error) {
				return c.GetHeartRate(context.Background(), "2024-01-01", "2024-01-07")
			},
			path: "/v2/usercollection/heartrate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, captured := newTestServer(t, http.StatusOK, `{"data":[],"next_token":null}`)

			raw, err := tt.call(newTestClient(server.URL))
			require.NoError(t, err)
			assert.JSONEq(t, `{"data":[],"next_token":null}`, string(raw))

			require.Len(t, *captured, 1)
			req := (*captured)[0]
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, "Bearer test-token", req.Authorization)
			assert.Equal(t, []string{"2024-01-01"}, req.Query["start_date"])
			assert.Equal(t, []string{"2024-01-07"}, req.Query["end_date"])
		})
	}
}

// TestOuraClient_OmitsEmptyEndDate tests that end_date is left out of the
// query rather than sent empty.
func TestOuraClient_OmitsEmptyEndDate(t *testing.T) {
	server, captured := newTestServer(t, http.StatusOK, `{"data":[]}`)

	_, err := newTestClient(server.URL).GetDailySleep(context.Background(), "2024-03-10", "")
	require.NoError(t, err)

	require.Len(t, *captured, 1)
	query := (*captured)[0].Query
	assert.Equal(t, []string{"2024-03-10"}, query["start_date"])
	_, present := query["end_date"]
	assert.False(t, present, "end_date should be omitted")
}

func TestOuraClient_Unauthorized(t *testing.T) {
	server, _ := newTestServer(t, http.StatusUnauthorized, `{"detail":"Invalid token"}`)

	_, err := newTestClient(server.URL).GetDailyReadiness(context.Background(), "2024-01-01", "")
	require.Error(t, err)

	var httpErr domain.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, `{"detail":"Invalid token"}`, httpErr.Body)

	mapped := domain.MapUpstreamError(err)
	assert.Equal(t, domain.InvalidRequest, mapped.Code)
	assert.Equal(t, domain.InvalidAPIKeyMessage, mapped.Message)
}

func TestOuraClient_ServerError(t *testing.T) {
	server, _ := newTestServer(t, http.StatusInternalServerError, "upstream exploded\n")

	_, err := newTestClient(server.URL).GetDailyActivity(context.Background(), "2024-01-01", "")
	require.Error(t, err)

	var httpErr domain.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "HTTP 500: Internal Server Error - upstream exploded", err.Error())
}

func TestOuraClient_InvalidJSON(t *testing.T) {
	server, _ := newTestServer(t, http.StatusOK, `{"data":[`)

	_, err := newTestClient(server.URL).GetHeartRate(context.Background(), "2024-01-01", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestOuraClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	_, err := newTestClient(baseURL).GetDailySleep(context.Background(), "2024-01-01", "")
	require.Error(t, err)

	var httpErr domain.HTTPError
	assert.False(t, errors.As(err, &httpErr))
	assert.Equal(t, domain.InternalError, domain.MapUpstreamError(err).Code)
}

func TestOuraClient_RespectsContext(t *testing.T) {
	server, captured := newTestServer(t, http.StatusOK, `{"data":[]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).GetDailySleep(ctx, "2024-01-01", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *captured)
}

func TestNewOuraClient_TrimsBaseURL(t *testing.T) {
	client := NewOuraClient("https://api.ouraring.com/v2///", http.DefaultClient)
	assert.Equal(t, "https://api.ouraring.com/v2", client.BaseURL())
}

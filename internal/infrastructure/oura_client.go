package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"oura-mcp-server/internal/domain"
)

// Oura API v2 collection paths, relative to the base URL.
const (
	pathDailySleep     = "/usercollection/daily_sleep"
	pathDailyReadiness = "/usercollection/daily_readiness"
	pathDailyActivity  = "/usercollection/daily_activity"
	pathHeartRate      = "/usercollection/heartrate"
)

// OuraClient handles Oura API v2 interactions.
// It implements domain.OuraAPI; authentication lives in the supplied
// http.Client (see domain.NewAuthenticatedClient).
type OuraClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOuraClient creates a new Oura API client.
// The baseURL should be the API root (e.g. "https://api.ouraring.com/v2").
func NewOuraClient(baseURL string, httpClient *http.Client) *OuraClient {
	return &OuraClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the configured API root.
func (c *OuraClient) BaseURL() string {
	return c.baseURL
}

// GetDailySleep retrieves daily sleep scores and contributors.
func (c *OuraClient) GetDailySleep(ctx context.Context, startDate, endDate string) (json.RawMessage, error) {
	return c.getCollection(ctx, pathDailySleep, startDate, endDate)
}

// GetDailyReadiness retrieves daily readiness scores and contributors.
func (c *OuraClient) GetDailyReadiness(ctx context.Context, startDate, endDate string) (json.RawMessage, error) {
	return c.getCollection(ctx, pathDailyReadiness, startDate, endDate)
}

// GetDailyActivity retrieves daily activity scores, steps and calories.
func (c *OuraClient) GetDailyActivity(ctx context.Context, startDate, endDate string) (json.RawMessage, error) {
	return c.getCollection(ctx, pathDailyActivity, startDate, endDate)
}

// GetHeartRate retrieves timestamped heart-rate samples.
func (c *OuraClient) GetHeartRate(ctx context.Context, startDate, endDate string) (json.RawMessage, error) {
	return c.getCollection(ctx, pathHeartRate, startDate, endDate)
}

// getCollection issues one GET and returns the body verbatim.
// Transport errors are returned unwrapped and non-2xx statuses as
// domain.HTTPError; classifying them is the caller's job.
func (c *OuraClient) getCollection(ctx context.Context, path, startDate, endDate string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("start_date", startDate)
	if endDate != "" {
		query.Set("end_date", endDate)
	}
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON from %s", path)
	}

	return json.RawMessage(body), nil
}

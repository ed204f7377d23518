package domain

import (
	"context"
	"encoding/json"
)

// OuraAPI is the upstream surface the tool gateway depends on.
// Each method issues exactly one GET and returns the raw JSON body.
// endDate is optional; an empty string means it is omitted from the query.
type OuraAPI interface {
	GetDailySleep(ctx context.Context, startDate, endDate string) (json.RawMessage, error)
	GetDailyReadiness(ctx context.Context, startDate, endDate string) (json.RawMessage, error)
	GetDailyActivity(ctx context.Context, startDate, endDate string) (json.RawMessage, error)
	GetHeartRate(ctx context.Context, startDate, endDate string) (json.RawMessage, error)
}

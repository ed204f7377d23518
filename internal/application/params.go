package application

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"oura-mcp-server/internal/domain"
)

// DateRange is the validated argument record shared by every Oura tool.
type DateRange struct {
	StartDate string `json:"start_date" jsonschema:"description=Start date in YYYY-MM-DD format"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"description=End date in YYYY-MM-DD format (defaults to start_date)"`
}

// DisplayEnd is the range end shown in summaries: end_date, or start_date when omitted.
func (r DateRange) DisplayEnd() string {
	if r.EndDate == "" {
		return r.StartDate
	}
	return r.EndDate
}

// String renders the range as "START to END".
func (r DateRange) String() string {
	return r.StartDate + " to " + r.DisplayEnd()
}

var (
	dateRangeSchema    = reflectInputSchema(DateRange{})
	dateRangeValidator = mustCompileSchema(dateRangeSchema)
)

// reflectInputSchema derives an MCP input schema from a struct's json tags.
// Fields without omitempty are required.
func reflectInputSchema(v interface{}) map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	inputSchema := reflector.Reflect(v)

	schema := map[string]interface{}{
		"type":       "object",
		"properties": inputSchema.Properties,
	}
	if len(inputSchema.Required) > 0 {
		schema["required"] = inputSchema.Required
	}
	return schema
}

func mustCompileSchema(schema map[string]interface{}) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid tool input schema: %v", err))
	}
	return compiled
}

// parseDateRange validates tool arguments and converts them to a DateRange.
// Scalar values are coerced to strings first. Every violation is reported in
// a single InvalidParams error.
func parseDateRange(args map[string]interface{}) (DateRange, error) {
	coerced := coerceDateArgs(args)

	result, err := dateRangeValidator.Validate(gojsonschema.NewGoLoader(coerced))
	if err != nil {
		return DateRange{}, domain.NewError(domain.InvalidParams, fmt.Sprintf("invalid arguments: %v", err))
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, violation := range result.Errors() {
			messages = append(messages, describeViolation(violation))
		}
		sort.Strings(messages)
		return DateRange{}, domain.NewError(domain.InvalidParams, strings.Join(messages, "; "))
	}

	var dateRange DateRange
	dateRange.StartDate, _ = coerced["start_date"].(string)
	dateRange.EndDate, _ = coerced["end_date"].(string)
	return dateRange, nil
}

// coerceDateArgs copies args, stringifying numbers and booleans for the date
// fields. A null end_date is treated as absent.
func coerceDateArgs(args map[string]interface{}) map[string]interface{} {
	coerced := make(map[string]interface{}, len(args))
	for key, value := range args {
		coerced[key] = value
	}

	for _, key := range []string{"start_date", "end_date"} {
		value, ok := coerced[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case nil:
			if key == "end_date" {
				delete(coerced, key)
			}
		case float64:
			coerced[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			coerced[key] = strconv.Itoa(v)
		case int64:
			coerced[key] = strconv.FormatInt(v, 10)
		case json.Number:
			coerced[key] = v.String()
		case bool:
			coerced[key] = strconv.FormatBool(v)
		}
	}

	return coerced
}

const rootField = "(root)"

func describeViolation(violation gojsonschema.ResultError) string {
	if violation.Field() == rootField {
		return violation.Description()
	}
	return violation.Field() + ": " + violation.Description()
}

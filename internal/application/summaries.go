package application

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// HeartRateDisplayLimit caps the number of heart-rate samples rendered.
const HeartRateDisplayLimit = 20

// Summaries are pure functions of the raw Oura body and the requested range.
// Missing numeric fields read as zero.

// SleepDay is one record from /usercollection/daily_sleep.
type SleepDay struct {
	Day         string
	Score       int64
	DeepSleep   int64
	REMSleep    int64
	LightSleep  int64
	Efficiency  int64
	Restfulness int64
	Timing      int64
	TotalSleep  int64
	Latency     int64
}

func parseSleepDay(record gjson.Result) SleepDay {
	contributors := record.Get("contributors")
	return SleepDay{
		Day:         record.Get("day").String(),
		Score:       record.Get("score").Int(),
		DeepSleep:   contributors.Get("deep_sleep").Int(),
		REMSleep:    contributors.Get("rem_sleep").Int(),
		LightSleep:  contributors.Get("light_sleep").Int(),
		Efficiency:  contributors.Get("efficiency").Int(),
		Restfulness: contributors.Get("restfulness").Int(),
		Timing:      contributors.Get("timing").Int(),
		TotalSleep:  contributors.Get("total_sleep").Int(),
		Latency:     contributors.Get("latency").Int(),
	}
}

// SummarizeSleep renders daily sleep scores with deep, REM and efficiency contributors.
func SummarizeSleep(raw json.RawMessage, dateRange DateRange) string {
	records := dataRecords(raw)
	if len(records) == 0 {
		return noDataMessage("sleep", dateRange)
	}

	days := make([]SleepDay, 0, len(records))
	scores := make([]int64, 0, len(records))
	for _, record := range records {
		day := parseSleepDay(record)
		days = append(days, day)
		scores = append(scores, day.Score)
	}

	lines := make([]string, 0, len(days))
	for _, day := range days {
		lines = append(lines, fmt.Sprintf("%s: Sleep %d/100 (Deep: %d, REM: %d, Efficiency: %d)",
			day.Day, day.Score, day.DeepSleep, day.REMSleep, day.Efficiency))
	}

	return fmt.Sprintf("Sleep Data (%s):\n\n%s\n\nAverage Sleep Score: %d/100",
		dateRange, strings.Join(lines, "\n"), averageScore(scores))
}

// ReadinessDay is one record from /usercollection/daily_readiness.
type ReadinessDay struct {
	Day                  string
	Score                int64
	HRVBalance           int64
	RestingHeartRate     int64
	BodyTemp             int64
	RecoveryIndex        int64
	SleepBalance         int64
	TemperatureDeviation float64
}

func parseReadinessDay(record gjson.Result) ReadinessDay {
	contributors := record.Get("contributors")
	return ReadinessDay{
		Day:                  record.Get("day").String(),
		Score:                record.Get("score").Int(),
		HRVBalance:           contributors.Get("hrv_balance").Int(),
		RestingHeartRate:     contributors.Get("resting_heart_rate").Int(),
		BodyTemp:             contributors.Get("body_temperature").Int(),
		RecoveryIndex:        contributors.Get("recovery_index").Int(),
		SleepBalance:         contributors.Get("sleep_balance").Int(),
		TemperatureDeviation: record.Get("temperature_deviation").Float(),
	}
}

// SummarizeReadiness renders daily readiness with HRV, resting heart rate and temperature deviation.
func SummarizeReadiness(raw json.RawMessage, dateRange DateRange) string {
	records := dataRecords(raw)
	if len(records) == 0 {
		return noDataMessage("readiness", dateRange)
	}

	lines := make([]string, 0, len(records))
	scores := make([]int64, 0, len(records))
	for _, record := range records {
		day := parseReadinessDay(record)
		scores = append(scores, day.Score)
		lines = append(lines, fmt.Sprintf("%s: Readiness %d/100 (HRV: %d, RHR: %d, Temp: %s°C)",
			day.Day, day.Score, day.HRVBalance, day.RestingHeartRate, formatDeviation(day.TemperatureDeviation)))
	}

	return fmt.Sprintf("Readiness Data (%s):\n\n%s\n\nAverage Readiness Score: %d/100",
		dateRange, strings.Join(lines, "\n"), averageScore(scores))
}

// formatDeviation prints two decimals with an explicit "+" for positive values.
func formatDeviation(deviation float64) string {
	if deviation > 0 {
		return fmt.Sprintf("+%.2f", deviation)
	}
	return fmt.Sprintf("%.2f", deviation)
}

// ActivityDay is one record from /usercollection/daily_activity.
type ActivityDay struct {
	Day      string
	Score    int64
	Steps    int64
	Calories int64
}

func parseActivityDay(record gjson.Result) ActivityDay {
	return ActivityDay{
		Day:      record.Get("day").String(),
		Score:    record.Get("score").Int(),
		Steps:    record.Get("steps").Int(),
		Calories: record.Get("active_calories").Int(),
	}
}

// SummarizeActivity renders daily activity with steps and active calories,
// followed by the average score and total steps.
func SummarizeActivity(raw json.RawMessage, dateRange DateRange) string {
	records := dataRecords(raw)
	if len(records) == 0 {
		return noDataMessage("activity", dateRange)
	}

	printer := message.NewPrinter(language.English)

	lines := make([]string, 0, len(records))
	scores := make([]int64, 0, len(records))
	var totalSteps int64
	for _, record := range records {
		day := parseActivityDay(record)
		scores = append(scores, day.Score)
		totalSteps += day.Steps
		lines = append(lines, fmt.Sprintf("%s: Activity %d/100 (Steps: %s, Calories: %d)",
			day.Day, day.Score, printer.Sprintf("%d", day.Steps), day.Calories))
	}

	return fmt.Sprintf("Activity Data (%s):\n\n%s\n\nAverage Activity Score: %d/100\nTotal Steps: %s",
		dateRange, strings.Join(lines, "\n"), averageScore(scores), printer.Sprintf("%d", totalSteps))
}

// HeartRateSample is one record from /usercollection/heartrate.
type HeartRateSample struct {
	Timestamp string
	BPM       int64
	Source    string
}

func parseHeartRateSample(record gjson.Result) HeartRateSample {
	return HeartRateSample{
		Timestamp: record.Get("timestamp").String(),
		BPM:       record.Get("bpm").Int(),
		Source:    record.Get("source").String(),
	}
}

// SummarizeHeartRate renders at most HeartRateDisplayLimit samples.
// The limit note is appended whether or not truncation happened.
func SummarizeHeartRate(raw json.RawMessage, dateRange DateRange) string {
	records := dataRecords(raw)
	if len(records) == 0 {
		return noDataMessage("heart rate", dateRange)
	}

	if len(records) > HeartRateDisplayLimit {
		records = records[:HeartRateDisplayLimit]
	}

	lines := make([]string, 0, len(records))
	for _, record := range records {
		sample := parseHeartRateSample(record)
		lines = append(lines, fmt.Sprintf("%s: %d bpm (Source: %s)", sample.Timestamp, sample.BPM, sample.Source))
	}

	return fmt.Sprintf("Heart Rate Data (%s):\n\n%s\n\n(Showing first %d data points)",
		dateRange, strings.Join(lines, "\n"), HeartRateDisplayLimit)
}

// dataRecords returns the elements of the top-level "data" array.
func dataRecords(raw json.RawMessage) []gjson.Result {
	data := gjson.GetBytes(raw, "data")
	if !data.IsArray() {
		return nil
	}
	return data.Array()
}

func noDataMessage(category string, dateRange DateRange) string {
	return fmt.Sprintf("No %s data found for %s.", category, dateRange)
}

// averageScore is the mean rounded half away from zero. scores must be non-empty.
func averageScore(scores []int64) int64 {
	var sum int64
	for _, score := range scores {
		sum += score
	}
	return int64(math.Round(float64(sum) / float64(len(scores))))
}

package models

import "time"

// WeatherReading is a normalized current-weather snapshot for a region.
// Temperature and WindSpeed are nil when the provider omitted them; downstream
// consumers must tolerate nil numeric fields.
type WeatherReading struct {
	Description string   `json:"description"`
	Temperature *float64 `json:"temperature"`
	WindSpeed   *float64 `json:"windSpeed"`
}

// AdvisoryRequest carries the validated query parameters for one advisory call.
type AdvisoryRequest struct {
	Crop     string
	Region   string
	Language string // "en" or "hi"; anything else is treated as "en"
}

// Advisory is the assembled farming-tip payload returned to the caller.
// Built once per request, never persisted.
type Advisory struct {
	Crop           string    `json:"crop"`
	Region         string    `json:"region"`
	Forecast       string    `json:"forecast"`
	DailyTip       string    `json:"daily_tip"`
	EmergencyAlert string    `json:"emergency_alert"`
	Timestamp      time.Time `json:"timestamp"`
	Language       string    `json:"language"`
}

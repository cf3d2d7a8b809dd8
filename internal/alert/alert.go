// Package alert derives a single emergency alert string from a weather
// reading using fixed thresholds.
package alert

import (
	"strings"

	"github.com/agridesk/farm-advisory-gateway/internal/models"
)

// Alert messages. Exactly one is returned per evaluation.
const (
	MsgNoUrgentIssues = "No urgent issues."
	MsgHeatwave       = "Heatwave conditions: irrigate in early morning or evening and provide shade for sensitive crops."
	MsgHeavyRain      = "Heavy rain likely: clear field drainage channels and hold off on fertilizer application."
	MsgStrongWind     = "Strong winds expected: stake or secure young plants and postpone any spraying."
)

// Thresholds for rule evaluation, in metric units (°C, km/h).
const (
	heatwaveTempC  = 40.0
	heavyRainTempC = 25.0
	strongWindKmh  = 40.0
)

// Evaluate maps a reading to one alert message. Rules run in fixed order and
// each matching rule overwrites the previous result, so the last match wins:
// heatwave, then rain, then wind. Nil temperature or wind never matches a
// threshold.
func Evaluate(reading models.WeatherReading) string {
	msg := MsgNoUrgentIssues

	if exceeds(reading.Temperature, heatwaveTempC) {
		msg = MsgHeatwave
	}
	if strings.Contains(reading.Description, "rain") && below(reading.Temperature, heavyRainTempC) {
		msg = MsgHeavyRain
	}
	if exceeds(reading.WindSpeed, strongWindKmh) {
		msg = MsgStrongWind
	}

	return msg
}

func exceeds(v *float64, threshold float64) bool {
	return v != nil && *v > threshold
}

func below(v *float64, threshold float64) bool {
	return v != nil && *v < threshold
}

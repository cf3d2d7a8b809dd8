package alert

import (
	"testing"

	"github.com/agridesk/farm-advisory-gateway/internal/models"
)

func f(v float64) *float64 { return &v }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		reading models.WeatherReading
		want    string
	}{
		{
			name:    "no rules match",
			reading: models.WeatherReading{Description: "clear", Temperature: f(22), WindSpeed: f(10)},
			want:    MsgNoUrgentIssues,
		},
		{
			name:    "heatwave",
			reading: models.WeatherReading{Description: "clear", Temperature: f(45), WindSpeed: f(0)},
			want:    MsgHeatwave,
		},
		{
			name:    "rain below threshold",
			reading: models.WeatherReading{Description: "light rain", Temperature: f(20), WindSpeed: f(0)},
			want:    MsgHeavyRain,
		},
		{
			name:    "rain description but warm",
			reading: models.WeatherReading{Description: "light rain", Temperature: f(30), WindSpeed: f(0)},
			want:    MsgNoUrgentIssues,
		},
		{
			name:    "strong wind",
			reading: models.WeatherReading{Description: "clear", Temperature: f(20), WindSpeed: f(50)},
			want:    MsgStrongWind,
		},
		{
			name:    "wind overrides heat and rain",
			reading: models.WeatherReading{Description: "heavy rain", Temperature: f(45), WindSpeed: f(50)},
			want:    MsgStrongWind,
		},
		{
			name:    "rain overrides heat",
			reading: models.WeatherReading{Description: "rain", Temperature: f(20), WindSpeed: f(0)},
			want:    MsgHeavyRain,
		},
		{
			name:    "nil readings never trigger",
			reading: models.WeatherReading{Description: "clear", Temperature: nil, WindSpeed: nil},
			want:    MsgNoUrgentIssues,
		},
		{
			name:    "nil temperature blocks rain rule",
			reading: models.WeatherReading{Description: "rain", Temperature: nil, WindSpeed: nil},
			want:    MsgNoUrgentIssues,
		},
		{
			name:    "threshold is exclusive",
			reading: models.WeatherReading{Description: "clear", Temperature: f(40), WindSpeed: f(40)},
			want:    MsgNoUrgentIssues,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.reading)
			if got != tt.want {
				t.Errorf("Evaluate() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestEvaluate_Deterministic verifies repeated evaluation of the same reading
// yields the same alert.
func TestEvaluate_Deterministic(t *testing.T) {
	reading := models.WeatherReading{Description: "heavy rain", Temperature: f(18), WindSpeed: f(12)}
	first := Evaluate(reading)
	for i := 0; i < 10; i++ {
		if got := Evaluate(reading); got != first {
			t.Fatalf("Evaluate() not deterministic: got %q, want %q", got, first)
		}
	}
}

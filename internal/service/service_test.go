package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/agridesk/farm-advisory-gateway/internal/models"
	"github.com/agridesk/farm-advisory-gateway/internal/weather"
)

func f(v float64) *float64 { return &v }

type spyWeatherClient struct {
	reading models.WeatherReading
	err     error
	calls   int
}

func (s *spyWeatherClient) FetchCurrent(ctx context.Context, region string) (models.WeatherReading, error) {
	s.calls++
	return s.reading, s.err
}

type spyGenerator struct {
	text    string
	err     error
	calls   int
	prompts []string
}

func (s *spyGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

func TestGetAdvice_Success(t *testing.T) {
	// Arrange
	weatherClient := &spyWeatherClient{
		reading: models.WeatherReading{Description: "light rain", Temperature: f(20), WindSpeed: f(8)},
	}
	generator := &spyGenerator{text: "Delay sowing until the rain passes."}
	svc := NewAdvisoryService(weatherClient, generator, 100)

	// Act
	advisory, err := svc.GetAdvice(context.Background(), models.AdvisoryRequest{
		Crop:     "wheat",
		Region:   "Nagpur",
		Language: "hi",
	})

	// Assert
	if err != nil {
		t.Fatalf("GetAdvice() unexpected error: %v", err)
	}
	if advisory.Crop != "wheat" || advisory.Region != "Nagpur" {
		t.Errorf("Advisory crop/region = %q/%q, want wheat/Nagpur", advisory.Crop, advisory.Region)
	}
	if advisory.Forecast != "light rain, 20°C, Wind: 8 km/h" {
		t.Errorf("Forecast = %q, want %q", advisory.Forecast, "light rain, 20°C, Wind: 8 km/h")
	}
	if advisory.DailyTip != "Delay sowing until the rain passes." {
		t.Errorf("DailyTip = %q", advisory.DailyTip)
	}
	if !strings.Contains(advisory.EmergencyAlert, "rain") {
		t.Errorf("EmergencyAlert = %q, want the rain alert", advisory.EmergencyAlert)
	}
	if advisory.Language != "hi" {
		t.Errorf("Language = %q, want %q", advisory.Language, "hi")
	}
	if advisory.Timestamp.IsZero() {
		t.Errorf("Timestamp not set")
	}
	if weatherClient.calls != 1 || generator.calls != 1 {
		t.Errorf("upstream calls = %d/%d, want 1/1", weatherClient.calls, generator.calls)
	}
	if len(generator.prompts) != 1 || !strings.Contains(generator.prompts[0], "light rain") {
		t.Errorf("generator prompt missing weather description: %v", generator.prompts)
	}
}

// TestGetAdvice_InvalidRequest verifies validation happens before any
// upstream call: the spy clients must see zero calls.
func TestGetAdvice_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  models.AdvisoryRequest
	}{
		{"missing crop", models.AdvisoryRequest{Region: "Nagpur"}},
		{"missing region", models.AdvisoryRequest{Crop: "wheat"}},
		{"whitespace crop", models.AdvisoryRequest{Crop: "   ", Region: "Nagpur"}},
		{"both missing", models.AdvisoryRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weatherClient := &spyWeatherClient{}
			generator := &spyGenerator{}
			svc := NewAdvisoryService(weatherClient, generator, 100)

			_, err := svc.GetAdvice(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("GetAdvice() error = %v, want %v", err, ErrInvalidRequest)
			}
			if weatherClient.calls != 0 {
				t.Errorf("weather client called %d times, want 0", weatherClient.calls)
			}
			if generator.calls != 0 {
				t.Errorf("generator called %d times, want 0", generator.calls)
			}
		})
	}
}

// TestGetAdvice_WeatherFailureAbortsPipeline verifies the first failing stage
// stops the sequence: the generator is never called.
func TestGetAdvice_WeatherFailureAbortsPipeline(t *testing.T) {
	weatherClient := &spyWeatherClient{err: fmt.Errorf("HTTP 404: %w", weather.ErrRegionNotFound)}
	generator := &spyGenerator{}
	svc := NewAdvisoryService(weatherClient, generator, 100)

	_, err := svc.GetAdvice(context.Background(), models.AdvisoryRequest{Crop: "wheat", Region: "nowhere"})
	if !errors.Is(err, weather.ErrRegionNotFound) {
		t.Fatalf("GetAdvice() error = %v, want wrapped %v", err, weather.ErrRegionNotFound)
	}
	if generator.calls != 0 {
		t.Errorf("generator called %d times after weather failure, want 0", generator.calls)
	}
}

func TestGetAdvice_GeneratorFailurePropagates(t *testing.T) {
	weatherClient := &spyWeatherClient{
		reading: models.WeatherReading{Description: "clear", Temperature: f(25), WindSpeed: f(5)},
	}
	sentinel := errors.New("generation blew up")
	generator := &spyGenerator{err: sentinel}
	svc := NewAdvisoryService(weatherClient, generator, 100)

	_, err := svc.GetAdvice(context.Background(), models.AdvisoryRequest{Crop: "wheat", Region: "Nagpur"})
	if !errors.Is(err, sentinel) {
		t.Fatalf("GetAdvice() error = %v, want wrapped %v", err, sentinel)
	}
}

// TestGetAdvice_Idempotent verifies two identical requests against
// deterministic stubs yield identical advisories except for the timestamp.
func TestGetAdvice_Idempotent(t *testing.T) {
	weatherClient := &spyWeatherClient{
		reading: models.WeatherReading{Description: "clear sky", Temperature: f(31), WindSpeed: f(9)},
	}
	generator := &spyGenerator{text: "Mulch around the roots to retain moisture."}
	svc := NewAdvisoryService(weatherClient, generator, 100)
	req := models.AdvisoryRequest{Crop: "cotton", Region: "Indore", Language: "en"}

	first, err := svc.GetAdvice(context.Background(), req)
	if err != nil {
		t.Fatalf("GetAdvice() unexpected error: %v", err)
	}
	second, err := svc.GetAdvice(context.Background(), req)
	if err != nil {
		t.Fatalf("GetAdvice() unexpected error: %v", err)
	}

	first.Timestamp = second.Timestamp
	if first != second {
		t.Errorf("advisories differ beyond timestamp:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestGetAdvice_NilReadingsRenderUnknownForecast(t *testing.T) {
	weatherClient := &spyWeatherClient{reading: models.WeatherReading{Description: "Unknown"}}
	generator := &spyGenerator{text: "tip"}
	svc := NewAdvisoryService(weatherClient, generator, 100)

	advisory, err := svc.GetAdvice(context.Background(), models.AdvisoryRequest{Crop: "rice", Region: "Pune"})
	if err != nil {
		t.Fatalf("GetAdvice() unexpected error: %v", err)
	}
	if advisory.Forecast != "Unknown, unknown°C, Wind: unknown km/h" {
		t.Errorf("Forecast = %q, want %q", advisory.Forecast, "Unknown, unknown°C, Wind: unknown km/h")
	}
	if advisory.EmergencyAlert != "No urgent issues." {
		t.Errorf("EmergencyAlert = %q, want default", advisory.EmergencyAlert)
	}
}

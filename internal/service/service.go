package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agridesk/farm-advisory-gateway/internal/alert"
	"github.com/agridesk/farm-advisory-gateway/internal/genai"
	"github.com/agridesk/farm-advisory-gateway/internal/models"
	"github.com/agridesk/farm-advisory-gateway/internal/observability"
	"github.com/agridesk/farm-advisory-gateway/internal/prompt"
	"github.com/agridesk/farm-advisory-gateway/internal/validation"
	"github.com/agridesk/farm-advisory-gateway/internal/weather"
)

// ErrInvalidRequest is returned when crop or region is missing or malformed.
// Always raised before any upstream call.
var ErrInvalidRequest = errors.New("invalid advisory request")

// AdvisoryService runs the advisory pipeline: validate input, fetch weather,
// evaluate the alert, build the prompt, generate the tip, assemble the
// payload. Stages run strictly in sequence; the first failure aborts the rest.
type AdvisoryService struct {
	weather        weather.Client
	generator      genai.Generator
	paramMaxLength int
}

// NewAdvisoryService creates an AdvisoryService with the provided upstream
// clients. paramMaxLength bounds the crop and region query parameters.
func NewAdvisoryService(weatherClient weather.Client, generator genai.Generator, paramMaxLength int) *AdvisoryService {
	return &AdvisoryService{
		weather:        weatherClient,
		generator:      generator,
		paramMaxLength: paramMaxLength,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// GetAdvice produces one Advisory for the request. Upstream failures pass
// through wrapped, so callers can dispatch on the client packages' sentinel
// errors.
func (s *AdvisoryService) GetAdvice(ctx context.Context, req models.AdvisoryRequest) (models.Advisory, error) {
	start := time.Now()
	logger := loggerFromContext(ctx)

	crop, err := validation.ValidateParam(req.Crop, s.paramMaxLength)
	if err != nil {
		return models.Advisory{}, fmt.Errorf("%w: crop: %v", ErrInvalidRequest, err)
	}
	region, err := validation.ValidateParam(req.Region, s.paramMaxLength)
	if err != nil {
		return models.Advisory{}, fmt.Errorf("%w: region: %v", ErrInvalidRequest, err)
	}
	language := validation.NormalizeLanguage(req.Language)

	reading, err := s.weather.FetchCurrent(ctx, region)
	if err != nil {
		observability.AdvisoriesTotal.WithLabelValues(language, "error").Inc()
		return models.Advisory{}, fmt.Errorf("fetch weather for %s: %w", region, err)
	}

	alertText := alert.Evaluate(reading)

	if logger != nil {
		logger.Debug("weather fetched",
			zap.String("region", region),
			zap.String("description", reading.Description),
			zap.String("alert", alertText))
	}

	tip, err := s.generator.Generate(ctx, prompt.Build(crop, region, reading, alertText, language))
	if err != nil {
		observability.AdvisoriesTotal.WithLabelValues(language, "error").Inc()
		return models.Advisory{}, fmt.Errorf("generate advisory: %w", err)
	}

	advisory := models.Advisory{
		Crop:           crop,
		Region:         region,
		Forecast:       formatForecast(reading),
		DailyTip:       tip,
		EmergencyAlert: alertText,
		Timestamp:      time.Now().UTC(),
		Language:       language,
	}

	observability.RecordAdvisory(crop, language)
	if logger != nil {
		logger.Debug("advisory served",
			zap.String("crop", crop),
			zap.String("region", region),
			zap.String("language", language),
			zap.Duration("duration", time.Since(start)))
	}
	return advisory, nil
}

// formatForecast renders the one-line forecast summary. Nil temperature or
// wind renders as "unknown".
func formatForecast(reading models.WeatherReading) string {
	return fmt.Sprintf("%s, %s°C, Wind: %s km/h",
		reading.Description, renderNumber(reading.Temperature), renderNumber(reading.WindSpeed))
}

func renderNumber(v *float64) string {
	if v == nil {
		return "unknown"
	}
	return fmt.Sprintf("%g", *v)
}

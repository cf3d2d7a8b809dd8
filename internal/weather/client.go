package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/agridesk/farm-advisory-gateway/internal/models"
	"github.com/agridesk/farm-advisory-gateway/internal/observability"
)

// Client fetches a normalized current-weather reading for a region.
type Client interface {
	FetchCurrent(ctx context.Context, region string) (models.WeatherReading, error)
}

var (
	ErrInvalidAPIKey       = errors.New("invalid API key")
	ErrRegionNotFound      = errors.New("region not found")
	ErrUpstreamAuth        = errors.New("weather provider rejected credentials")
	ErrUpstreamUnavailable = errors.New("weather provider unavailable")
)

// OpenWeatherClient calls the OpenWeather current-weather API. Each fetch is a
// single round trip with a bounded timeout; failures are never retried.
type OpenWeatherClient struct {
	apiKey  string
	apiURL  string
	timeout time.Duration
	client  *http.Client
}

func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}

	return &OpenWeatherClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type openWeatherResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Wind struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
}

// FetchCurrent retrieves the current weather for region and normalizes the
// provider payload. Missing description becomes "Unknown"; missing temperature
// or wind stays nil.
func (c *OpenWeatherClient) FetchCurrent(ctx context.Context, region string) (models.WeatherReading, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, region)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.WeatherReading{}, fmt.Errorf("build request: %w", err)
	}

	corrID := extractCorrelationID(ctx)
	if corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.WeatherReading{}, fmt.Errorf("%w: request timeout: %v", ErrUpstreamUnavailable, err)
		}
		return models.WeatherReading{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(duration)

	if err := c.handleErrorResponse(resp); err != nil {
		return models.WeatherReading{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.WeatherReading{}, fmt.Errorf("read response body: %w", err)
	}

	var apiResp openWeatherResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return models.WeatherReading{}, fmt.Errorf("parse response: %w", err)
	}

	return mapResponse(apiResp), nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, region string) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("q", region)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *OpenWeatherClient) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamAuth, resp.StatusCode)
	case http.StatusNotFound:
		return fmt.Errorf("%w", ErrRegionNotFound)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	return nil
}

func mapResponse(apiResp openWeatherResponse) models.WeatherReading {
	description := "Unknown"
	if len(apiResp.Weather) > 0 {
		if apiResp.Weather[0].Description != "" {
			description = apiResp.Weather[0].Description
		} else if apiResp.Weather[0].Main != "" {
			description = apiResp.Weather[0].Main
		}
	}

	return models.WeatherReading{
		Description: description,
		Temperature: apiResp.Main.Temp,
		WindSpeed:   apiResp.Wind.Speed,
	}
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}

// Package genai calls the Gemini generateContent API to turn an advisory
// prompt into tip text.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agridesk/farm-advisory-gateway/internal/observability"
)

// Generator produces advisory text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	ErrInvalidAPIKey = errors.New("invalid API key")
	ErrQuotaExceeded = errors.New("generation quota exceeded")
	ErrGeneration    = errors.New("generation failed")
)

// GeminiClient sends a single user message per call with a fixed sampling
// temperature and a bounded output-token budget. One round trip per call,
// never retried; the first candidate's text is returned verbatim.
type GeminiClient struct {
	apiKey          string
	baseURL         string
	model           string
	temperature     float64
	maxOutputTokens int
	timeout         time.Duration
	client          *http.Client
}

func NewGeminiClient(apiKey, baseURL, model string, temperature float64, maxOutputTokens int, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = 512
	}

	return &GeminiClient{
		apiKey:          apiKey,
		baseURL:         baseURL,
		model:           model,
		temperature:     temperature,
		maxOutputTokens: maxOutputTokens,
		timeout:         timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends the prompt as a single user message and returns the first
// candidate's text. No post-processing is applied beyond whitespace trimming.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: prompt}},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		observability.GenerateAPICallsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.GenerateAPICallsTotal.WithLabelValues("error").Inc()
		observability.GenerateAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", fmt.Errorf("%w: request timeout: %v", ErrGeneration, err)
		}
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.GenerateAPICallsTotal.WithLabelValues(status).Inc()
	observability.GenerateAPIDuration.WithLabelValues(status).Observe(duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: HTTP 429", ErrQuotaExceeded)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrGeneration, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("%w: parse response: %v", ErrGeneration, err)
	}

	if apiResp.Error != nil {
		if apiResp.Error.Status == "RESOURCE_EXHAUSTED" {
			return "", fmt.Errorf("%w: %s", ErrQuotaExceeded, apiResp.Error.Message)
		}
		return "", fmt.Errorf("%w: %s", ErrGeneration, apiResp.Error.Message)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no completion returned", ErrGeneration)
	}

	var result strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		result.WriteString(part.Text)
	}

	return strings.TrimSpace(result.String()), nil
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

package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	client, err := NewGeminiClient("", "https://api.test.com", "gemini-2.0-flash", 0.7, 512, 2*time.Second)
	if !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("NewGeminiClient() error = %v, want %v", err, ErrInvalidAPIKey)
	}
	if client != nil {
		t.Errorf("NewGeminiClient() expected nil client on error")
	}
}

func TestGenerate_Success(t *testing.T) {
	// Arrange: capture the request body and return one candidate
	var gotBody geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Water your "},{"text":"wheat at dawn."}]}}]}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient("test-api-key", server.URL, "gemini-2.0-flash", 0.7, 512, 2*time.Second)
	if err != nil {
		t.Fatalf("NewGeminiClient() unexpected error: %v", err)
	}

	// Act
	got, err := client.Generate(context.Background(), "tip prompt")

	// Assert: parts concatenated, request carries prompt and sampling config
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if got != "Water your wheat at dawn." {
		t.Errorf("Generate() = %q, want %q", got, "Water your wheat at dawn.")
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("request contents = %+v, want one user message with one part", gotBody.Contents)
	}
	if gotBody.Contents[0].Role != "user" {
		t.Errorf("request role = %q, want %q", gotBody.Contents[0].Role, "user")
	}
	if gotBody.Contents[0].Parts[0].Text != "tip prompt" {
		t.Errorf("request prompt = %q, want %q", gotBody.Contents[0].Parts[0].Text, "tip prompt")
	}
	if gotBody.GenerationConfig.Temperature != 0.7 {
		t.Errorf("request temperature = %v, want 0.7", gotBody.GenerationConfig.Temperature)
	}
	if gotBody.GenerationConfig.MaxOutputTokens != 512 {
		t.Errorf("request maxOutputTokens = %v, want 512", gotBody.GenerationConfig.MaxOutputTokens)
	}
}

func TestGenerate_QuotaExceeded(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
	}{
		{
			name:       "HTTP 429",
			statusCode: http.StatusTooManyRequests,
			body:       `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`,
		},
		{
			name:       "resource exhausted in 200 body",
			statusCode: http.StatusOK,
			body:       `{"error":{"code":429,"message":"per-day quota exhausted","status":"RESOURCE_EXHAUSTED"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewGeminiClient("test-api-key", server.URL, "", 0.7, 0, 2*time.Second)
			_, err := client.Generate(context.Background(), "prompt")
			if !errors.Is(err, ErrQuotaExceeded) {
				t.Errorf("Generate() error = %v, want %v", err, ErrQuotaExceeded)
			}
		})
	}
}

func TestGenerate_FailureMapsToGenerationError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"bad request", http.StatusBadRequest, `{"error":{"code":400,"message":"invalid","status":"INVALID_ARGUMENT"}}`},
		{"error in 200 body", http.StatusOK, `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"empty parts", http.StatusOK, `{"candidates":[{"content":{"parts":[]}}]}`},
		{"malformed body", http.StatusOK, "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, _ := NewGeminiClient("test-api-key", server.URL, "", 0.7, 0, 2*time.Second)
			_, err := client.Generate(context.Background(), "prompt")
			if !errors.Is(err, ErrGeneration) {
				t.Errorf("Generate() error = %v, want %v", err, ErrGeneration)
			}
		})
	}
}

func TestGenerate_TimeoutMapsToGenerationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client, _ := NewGeminiClient("test-api-key", server.URL, "", 0.7, 0, 50*time.Millisecond)
	_, err := client.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrGeneration) {
		t.Errorf("Generate() error = %v, want %v", err, ErrGeneration)
	}
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/agridesk/farm-advisory-gateway/internal/auth"
	"github.com/agridesk/farm-advisory-gateway/internal/observability"
)

func CorrelationIDMiddleware(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			corrID := r.Header.Get("X-Correlation-ID")
			if corrID == "" {
				corrID = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), "correlation_id", corrID)
			r = r.WithContext(ctx)

			w.Header().Set("X-Correlation-ID", corrID)

			logger := logger.With(zap.String("correlation_id", corrID))
			ctx = context.WithValue(ctx, "logger", logger)
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		})
	}
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTPRequestsInFlight.Inc()
		globalInFlightTracker.Increment()
		defer func() {
			observability.HTTPRequestsInFlight.Dec()
			globalInFlightTracker.Decrement()
		}()

		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		route := getRoute(r)
		method := r.Method
		statusCode := statusCodeString(recorder.statusCode)

		observability.HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
		observability.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration)
	})
}

// AuthMiddleware runs the bearer guard before the wrapped handler. A missing
// configured secret is a 500 server fault; anything else that fails the check
// is a 401.
func AuthMiddleware(guard *auth.Guard) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := guard.Authorize(r.Header.Get("Authorization"))
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}

			if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
				logger.Debug("auth denied", zap.Error(err))
			}
			switch {
			case errors.Is(err, auth.ErrServerMisconfigured):
				observability.AuthDeniedTotal.WithLabelValues("server_misconfigured").Inc()
				writeError(w, r, http.StatusInternalServerError, "SERVER_MISCONFIGURED", "bearer token is not configured")
			case errors.Is(err, auth.ErrMissingHeader):
				observability.AuthDeniedTotal.WithLabelValues("missing_header").Inc()
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing or malformed Authorization header")
			default:
				observability.AuthDeniedTotal.WithLabelValues("invalid_token").Inc()
				writeError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid bearer token")
			}
		})
	}
}

// TimeoutMiddleware sets a deadline on the request context. When exceeded, downstream handlers
// receive context.DeadlineExceeded. Apply only to routes that need it (e.g. /get-farmer-advice).
func TimeoutMiddleware(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getRoute(r *http.Request) string {
	switch r.URL.Path {
	case "/get-farmer-advice":
		return "/get-farmer-advice"
	case "/health":
		return "/health"
	case "/metrics":
		return "/metrics"
	case "/mcp":
		return "/mcp"
	default:
		return r.URL.Path
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func statusCodeString(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// writeJSON writes a JSON response with the specified HTTP status code.
// Sets Content-Type header to application/json and encodes the provided value.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

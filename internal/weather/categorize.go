package weather

import (
	"context"
	"errors"
	"strings"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

// Error category constants used as metric labels (weatherApiErrorsTotal).
const (
	ErrorCategoryTimeout        ErrorCategory = "timeout"
	ErrorCategoryNetwork        ErrorCategory = "network"
	ErrorCategoryUpstreamAuth   ErrorCategory = "upstream_auth"
	ErrorCategoryRegionNotFound ErrorCategory = "region_not_found"
	ErrorCategoryUpstream       ErrorCategory = "upstream"
	ErrorCategoryParsing        ErrorCategory = "parsing"
	ErrorCategoryUnknown        ErrorCategory = "unknown"
)

// CategorizeError maps an error to a stable ErrorCategory for metrics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}

	if errors.Is(err, ErrUpstreamAuth) || errors.Is(err, ErrInvalidAPIKey) {
		return ErrorCategoryUpstreamAuth
	}

	if errors.Is(err, ErrRegionNotFound) {
		return ErrorCategoryRegionNotFound
	}

	errStr := err.Error()
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "context deadline exceeded") {
		return ErrorCategoryTimeout
	}

	if strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") {
		return ErrorCategoryNetwork
	}

	if errors.Is(err, ErrUpstreamUnavailable) {
		return ErrorCategoryUpstream
	}

	if strings.Contains(errStr, "parse") || strings.Contains(errStr, "unmarshal") {
		return ErrorCategoryParsing
	}

	return ErrorCategoryUnknown
}

package http

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agridesk/farm-advisory-gateway/internal/genai"
	"github.com/agridesk/farm-advisory-gateway/internal/lifecycle"
	"github.com/agridesk/farm-advisory-gateway/internal/models"
	"github.com/agridesk/farm-advisory-gateway/internal/observability"
	"github.com/agridesk/farm-advisory-gateway/internal/service"
	"github.com/agridesk/farm-advisory-gateway/internal/weather"
)

const serviceName = "farm-advisory-gateway"

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	advisoryService *service.AdvisoryService
	logger          *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(advisoryService *service.AdvisoryService, logger *zap.Logger) *Handler {
	return &Handler{
		advisoryService: advisoryService,
		logger:          logger,
	}
}

// adviceResponse is the success envelope for GET /get-farmer-advice.
type adviceResponse struct {
	Success bool            `json:"success"`
	Data    models.Advisory `json:"data"`
}

// GetFarmerAdvice handles GET /get-farmer-advice?crop=&region=&lang=.
func (h *Handler) GetFarmerAdvice(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := models.AdvisoryRequest{
		Crop:     query.Get("crop"),
		Region:   query.Get("region"),
		Language: query.Get("lang"),
	}

	advisory, err := h.advisoryService.GetAdvice(r.Context(), req)
	if err != nil {
		h.writeAdviceError(w, r, req.Region, err)
		return
	}
	writeJSON(w, http.StatusOK, adviceResponse{Success: true, Data: advisory})
}

// writeAdviceError maps a pipeline failure to a response status and error
// code. Dispatch is over the client packages' sentinel errors, so new
// upstream failure shapes cannot silently change the mapping.
func (h *Handler) writeAdviceError(w http.ResponseWriter, r *http.Request, region string, err error) {
	var status int
	var code, message string

	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
		message = "crop and region query parameters are required"
	case errors.Is(err, weather.ErrRegionNotFound):
		status, code = http.StatusNotFound, "REGION_NOT_FOUND"
		message = "weather data not found for region " + region
	case errors.Is(err, weather.ErrUpstreamAuth):
		status, code = http.StatusInternalServerError, "UPSTREAM_MISCONFIGURED"
		message = "weather provider credentials are misconfigured"
	case errors.Is(err, genai.ErrQuotaExceeded):
		status, code = http.StatusServiceUnavailable, "QUOTA_EXCEEDED"
		message = "advisory service is temporarily unavailable, retry later"
	default:
		status, code = http.StatusInternalServerError, "ADVISORY_FAILED"
		message = "failed to generate advisory: " + err.Error()
	}

	observability.AdvisoryFailuresTotal.WithLabelValues(code).Inc()
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		if status >= 500 {
			logger.Error("advisory failed", zap.String("code", code), zap.Error(err))
		} else {
			logger.Debug("advisory rejected", zap.String("code", code), zap.Error(err))
		}
	}
	writeError(w, r, status, code, message)
}

// GetHealth handles GET /health. Public; reports shutting-down with 503 once
// the drain has started.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   serviceName,
		"version":   "dev",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// mcpDescriptor is the static capability document served on GET /mcp. Treated
// as static content; it only describes the advisory operation's parameters.
var mcpDescriptor = map[string]interface{}{
	"name":        serviceName,
	"version":     "dev",
	"description": "Weather-aware farming advisory gateway",
	"tools": []map[string]interface{}{
		{
			"name":        "get_farmer_advice",
			"description": "Returns a weather-aware farming tip and emergency alert for a crop and region",
			"parameters": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"crop":   map[string]interface{}{"type": "string", "description": "Crop being grown"},
					"region": map[string]interface{}{"type": "string", "description": "Region or city name"},
					"lang":   map[string]interface{}{"type": "string", "enum": []string{"en", "hi"}, "description": "Response language"},
				},
				"required": []string{"crop", "region"},
			},
		},
	},
}

// GetMCP handles GET /mcp. Public.
func (h *Handler) GetMCP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mcpDescriptor)
}

// GetTestAuth handles GET /test-auth. Only routed in testing mode; sits
// behind the bearer guard so a deployment can verify its token end to end.
func (h *Handler) GetTestAuth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"message": "token accepted",
	})
}

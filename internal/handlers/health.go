// Package handlers provides HTTP handlers for the welfare scheme engine.
package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"welfare-scheme-engine/internal/services/catalog"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	store *catalog.Store
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store *catalog.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthResponse is the response structure for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Stage     string `json:"stage"`
	Catalog   string `json:"catalog,omitempty"`
	Schemes   int    `json:"schemes"`
}

// Handle processes health check requests.
func (h *HealthHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := corsHeaders()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "welfare-scheme-engine",
		Version:   getEnvOrDefault("SERVICE_VERSION", "1.0.0"),
		Stage:     getEnvOrDefault("STAGE", "unknown"),
	}

	if h.store != nil && h.store.IsLoaded() {
		response.Catalog = "loaded"
		response.Schemes = h.store.Count()
	} else {
		response.Catalog = "not loaded"
		response.Status = "degraded"
	}

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	return jsonResponse(headers, statusCode, response)
}

// getEnvOrDefault returns environment variable or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package routes

import (
	"net/http"

	"vodforge/logger"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthHandler provides a basic health check endpoint for load balancers and monitoring
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	logger.Debugf("Health check request: remoteAddr=%s", r.RemoteAddr)
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contatogonetwork/urban-space-broccoli/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string              `json:"status"`
	Database string              `json:"database"`
	Pool     *database.PoolStats `json:"pool,omitempty"`
	Snapshot string              `json:"snapshot"`
}

// HealthCheck handles the health check endpoint
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	response := HealthResponse{
		Status: "ok",
	}
	status := http.StatusOK

	// Check database connection
	if database.Pool() != nil {
		if err := database.Status(ctx); err != nil {
			response.Database = "disconnected"
			status = http.StatusServiceUnavailable
		} else {
			response.Database = "connected"
		}
		response.Pool = database.Stats()
	} else {
		response.Database = "not configured"
	}

	switch {
	case snapshotSource == nil:
		response.Snapshot = "not configured"
	case snapshotSource.IsHealthy(ctx):
		response.Snapshot = "ready"
	default:
		response.Snapshot = "unavailable"
		status = http.StatusServiceUnavailable
	}

	if status != http.StatusOK {
		response.Status = "degraded"
	}
	c.JSON(status, response)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SnapshotResponse describes the snapshot being served
type SnapshotResponse struct {
	Version      int64     `json:"version"`
	LoadedAt     time.Time `json:"loadedAt"`
	Items        int       `json:"items"`
	Observations int       `json:"observations"`
	Locations    int       `json:"locations"`
}

// RefreshSnapshot reloads the price history from the database
// @Summary Refresh price snapshot
// @Description Reloads the price history; the version only changes when the data did
// @Tags admin
// @Produce json
// @Success 200 {object} SnapshotResponse
// @Failure 503 {object} map[string]string "Database unavailable"
// @Router /internal/snapshot/refresh [post]
func RefreshSnapshot(c *gin.Context) {
	if snapshotSource == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics not initialized"})
		return
	}

	snap, err := snapshotSource.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SnapshotResponse{
		Version:      snap.Version(),
		LoadedAt:     snap.LoadedAt(),
		Items:        len(snap.Items()),
		Observations: snap.ObservationCount(),
		Locations:    len(snap.Locations()),
	})
}

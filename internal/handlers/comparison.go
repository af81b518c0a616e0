package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LocationsResponse represents the list of purchase locations
type LocationsResponse struct {
	Locations []string `json:"locations"`
	Total     int      `json:"total"`
}

// GetComparison returns average prices per item per location
// @Summary Market comparison
// @Description Item x location average price matrix with the cheapest location per item
// @Tags prices
// @Produce json
// @Success 200 {object} trends.MarketComparison
// @Router /internal/prices/comparison [get]
func GetComparison(c *gin.Context) {
	snap, ok := currentSnapshot(c)
	if !ok {
		return
	}

	comparison, err := resultCache.Comparison(c.Request.Context(), snap)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// ListLocations returns the distinct purchase locations
// @Summary List purchase locations
// @Tags prices
// @Produce json
// @Success 200 {object} LocationsResponse
// @Router /internal/locations [get]
func ListLocations(c *gin.Context) {
	snap, ok := currentSnapshot(c)
	if !ok {
		return
	}

	locations := snap.Locations()
	c.JSON(http.StatusOK, LocationsResponse{Locations: locations, Total: len(locations)})
}

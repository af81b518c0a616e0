package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contatogonetwork/urban-space-broccoli/internal/trends"
)

// ItemTrend is a trend summary with the item's display metadata.
type ItemTrend struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
	trends.TrendSummary
}

// ListTrendsResponse represents the response for all item trends
type ListTrendsResponse struct {
	Items           []ItemTrend `json:"items"`
	Total           int         `json:"total"`
	SnapshotVersion int64       `json:"snapshotVersion"`
}

// ListTrends returns the trend summary of every known item
// @Summary List price trends
// @Description Returns the trend summary of every item, ordered by item ID
// @Tags prices
// @Produce json
// @Success 200 {object} ListTrendsResponse
// @Failure 503 {object} map[string]string "Snapshot not loaded"
// @Router /internal/prices/trends [get]
func ListTrends(c *gin.Context) {
	snap, ok := currentSnapshot(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	items := snap.Items()
	resp := ListTrendsResponse{
		Items:           make([]ItemTrend, 0, len(items)),
		SnapshotVersion: snap.Version(),
	}
	for _, it := range items {
		summary, err := resultCache.Summary(ctx, snap, it.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		resp.Items = append(resp.Items, ItemTrend{Name: it.Name, Unit: it.Unit, TrendSummary: summary})
	}
	resp.Total = len(resp.Items)

	c.JSON(http.StatusOK, resp)
}

// GetTrend returns the trend summary of one item
// @Summary Get item price trend
// @Tags prices
// @Produce json
// @Param itemId path string true "Item ID"
// @Success 200 {object} ItemTrend
// @Failure 404 {object} map[string]string "Unknown item"
// @Router /internal/prices/trends/{itemId} [get]
func GetTrend(c *gin.Context) {
	itemID := c.Param("itemId")
	if itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId is required"})
		return
	}

	snap, ok := currentSnapshot(c)
	if !ok {
		return
	}

	summary, err := resultCache.Summary(c.Request.Context(), snap, itemID)
	if err != nil {
		respondError(c, err)
		return
	}

	name, unit, _ := snap.ItemMeta(itemID)
	c.JSON(http.StatusOK, ItemTrend{Name: name, Unit: unit, TrendSummary: summary})
}

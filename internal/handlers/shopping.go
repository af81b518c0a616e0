package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contatogonetwork/urban-space-broccoli/internal/optimizer"
)

// ============================================================================
// Shopping Trip Planning
// ============================================================================

// PlanRequest represents the shopping plan request
type PlanRequest struct {
	Items              []optimizer.RequestLine `json:"items" binding:"required,min=1,dive"`
	PreferredLocations []string                `json:"preferredLocations,omitempty"`
}

// PlanResponse is the plan plus its lines grouped by store.
type PlanResponse struct {
	*optimizer.ShoppingPlan
	ByLocation []optimizer.LocationGroup `json:"byLocation"`
}

// PlanShopping recommends where to buy each item of a shopping list
// @Summary Plan a shopping trip
// @Description Picks the cheapest (or preferred) location per item and totals cost and savings
// @Tags shopping
// @Accept json
// @Produce json
// @Param request body PlanRequest true "Shopping list"
// @Success 200 {object} PlanResponse
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Unknown item"
// @Router /internal/shopping/plan [post]
func PlanShopping(c *gin.Context) {
	var body PlanRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Checked per line: summing repeated lines could hide a bad quantity.
	for _, line := range body.Items {
		if !optimizer.ValidQuantity(line.Quantity) {
			respondError(c, &optimizer.ItemError{ItemID: line.ItemID, Err: optimizer.ErrInvalidQuantity})
			return
		}
	}

	req := optimizer.NewShoppingRequest(body.Items, body.PreferredLocations)
	if err := req.Validate(maxRequestItems); err != nil {
		respondError(c, err)
		return
	}

	snap, ok := currentSnapshot(c)
	if !ok {
		return
	}

	plan, err := resultCache.Plan(c.Request.Context(), snap, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, PlanResponse{ShoppingPlan: plan, ByLocation: plan.ByLocation()})
}

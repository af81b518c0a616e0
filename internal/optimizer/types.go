package optimizer

import (
	"fmt"
	"math"
	"sort"
)

// ShoppingRequest is a shopping list: item -> quantity, plus optional
// preferred purchase locations.
type ShoppingRequest struct {
	Quantities         map[string]float64 // itemID -> quantity (must be > 0)
	PreferredLocations []string           // Narrow the candidate pool, in priority order
}

// RequestLine is one entry of a shopping list as submitted over the wire.
// Line-level preferences are merged into the request-level list.
type RequestLine struct {
	ItemID             string   `json:"itemId" binding:"required"`
	Quantity           float64  `json:"quantity"`
	PreferredLocations []string `json:"preferredLocations,omitempty"`
}

// NewShoppingRequest builds a request from wire lines. Quantities of repeated
// item IDs are summed; preferred locations are the union of the request-level
// list followed by each line's list, first occurrence wins.
func NewShoppingRequest(lines []RequestLine, preferred []string) *ShoppingRequest {
	req := &ShoppingRequest{
		Quantities: make(map[string]float64, len(lines)),
	}

	seen := make(map[string]struct{})
	addPreferred := func(locs []string) {
		for _, l := range locs {
			if _, ok := seen[l]; ok || l == "" {
				continue
			}
			seen[l] = struct{}{}
			req.PreferredLocations = append(req.PreferredLocations, l)
		}
	}

	addPreferred(preferred)
	for _, line := range lines {
		req.Quantities[line.ItemID] += line.Quantity
		addPreferred(line.PreferredLocations)
	}
	return req
}

// Validate enforces the structural limits a request must meet before planning.
// Quantities are checked by the planner itself.
func (r *ShoppingRequest) Validate(maxItems int) error {
	if len(r.Quantities) < 1 {
		return ErrInvalidRequest{Field: "items", Reason: "must have at least one item", Index: -1}
	}
	if maxItems > 0 && len(r.Quantities) > maxItems {
		return ErrInvalidRequest{Field: "items", Reason: fmt.Sprintf("exceeds maximum of %d", maxItems), Index: -1}
	}
	for id := range r.Quantities {
		if id == "" {
			return ErrInvalidRequest{Field: "items", Reason: "itemId cannot be empty", Index: -1}
		}
	}
	return nil
}

// ValidQuantity reports whether q is a usable purchase quantity: finite and
// strictly positive.
func ValidQuantity(q float64) bool {
	return q > 0 && !math.IsInf(q, 0)
}

// ItemIDs returns the requested item IDs in ascending order.
func (r *ShoppingRequest) ItemIDs() []string {
	ids := make([]string, 0, len(r.Quantities))
	for id := range r.Quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LineItem is the recommendation for one requested item.
// Price fields are nil when the item has no price history.
type LineItem struct {
	ItemID              string   `json:"itemId"`
	Name                string   `json:"name"`
	Quantity            float64  `json:"quantity"`
	Unit                string   `json:"unit"`
	RecommendedLocation string   `json:"recommendedLocation"` // "unknown" when no history
	UnitPrice           *float64 `json:"unitPrice"`           // Average at the recommended location
	LineTotal           *float64 `json:"lineTotal"`
	MaxUnitPrice        *float64 `json:"maxUnitPrice"` // Most expensive location, 2+ locations only
	SavingsPct          *float64 `json:"savingsPct"`
	SavingsValue        *float64 `json:"savingsValue"`
	VsGlobalMeanPct     *float64 `json:"vsGlobalMeanPct"`
	LocationsCompared   int      `json:"locationsCompared"` // Locations with data for this item
}

// HasPrice reports whether the line carries price data.
func (l *LineItem) HasPrice() bool {
	return l.UnitPrice != nil
}

// ShoppingPlan is the per-item recommendation set for a shopping list.
type ShoppingPlan struct {
	Lines           []*LineItem        `json:"lines"` // Ascending itemID
	TotalCost       float64            `json:"totalCost"`
	TotalSavings    float64            `json:"totalSavings"`
	SavingsPct      *float64           `json:"savingsPct"` // TotalSavings / (TotalCost + TotalSavings)
	CostByLocation  map[string]float64 `json:"costByLocation"`
	PricedLines     int                `json:"pricedLines"`
	SnapshotVersion int64              `json:"snapshotVersion,omitempty"`
}

// LocationGroup is the slice of a plan bought at one location.
type LocationGroup struct {
	Location       string      `json:"location"`
	Lines          []*LineItem `json:"lines"` // Sorted by name, then itemID
	Subtotal       float64     `json:"subtotal"`
	NoPriceHistory bool        `json:"noPriceHistory"` // Lines without any price data
}

// ByLocation groups priced lines by recommended location, locations sorted
// alphabetically. Lines without price data are collected under
// UnknownLocation as the last group, marked NoPriceHistory so it stays
// distinct from a real location with the same label.
func (p *ShoppingPlan) ByLocation() []LocationGroup {
	groups := make(map[string]*LocationGroup)
	var unknown *LocationGroup

	for _, line := range p.Lines {
		if !line.HasPrice() {
			if unknown == nil {
				unknown = &LocationGroup{Location: line.RecommendedLocation, NoPriceHistory: true}
			}
			unknown.Lines = append(unknown.Lines, line)
			continue
		}
		g, ok := groups[line.RecommendedLocation]
		if !ok {
			g = &LocationGroup{Location: line.RecommendedLocation}
			groups[line.RecommendedLocation] = g
		}
		g.Lines = append(g.Lines, line)
		g.Subtotal += *line.LineTotal
	}

	out := make([]LocationGroup, 0, len(groups)+1)
	for _, g := range groups {
		sortLinesByName(g.Lines)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })

	if unknown != nil {
		sortLinesByName(unknown.Lines)
		out = append(out, *unknown)
	}
	return out
}

func sortLinesByName(lines []*LineItem) {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Name != lines[j].Name {
			return lines[i].Name < lines[j].Name
		}
		return lines[i].ItemID < lines[j].ItemID
	})
}

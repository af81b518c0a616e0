package trends

import (
	"context"
	"sort"

	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

// ComparisonSource is the read side the market comparison needs.
// *pricing.Snapshot satisfies it.
type ComparisonSource interface {
	Items() []pricing.Item
	LocationAverages(itemID string) []pricing.LocationAverage
}

// LocationPrice is one cell of the comparison pivot.
type LocationPrice struct {
	Location     string  `json:"location"`
	AvgUnitPrice float64 `json:"avgUnitPrice"`
	SampleCount  int     `json:"sampleCount"`
}

// ItemComparison lists an item's average price at every location that sold it.
type ItemComparison struct {
	ItemID string          `json:"itemId"`
	Name   string          `json:"name"`
	Unit   string          `json:"unit"`
	Prices []LocationPrice `json:"prices"` // Sorted by location

	// Set only when at least two locations have data.
	BestLocation *string  `json:"bestLocation"`
	BestPrice    *float64 `json:"bestPrice"`
	WorstPrice   *float64 `json:"worstPrice"`
	SavingsPct   *float64 `json:"savingsPct"` // best vs worst
}

// MarketComparison is the item x location average price matrix.
type MarketComparison struct {
	Locations []string         `json:"locations"`
	Items     []ItemComparison `json:"items"`
}

// Compare builds the market comparison for every item with at least one
// observation. Items are ordered by name, then ID.
func Compare(ctx context.Context, src ComparisonSource) (*MarketComparison, error) {
	out := &MarketComparison{
		Locations: []string{},
		Items:     []ItemComparison{},
	}
	seen := make(map[string]struct{})

	for _, item := range src.Items() {
		if err := ctx.Err(); err != nil {
			return nil, ErrCanceled
		}

		avgs := src.LocationAverages(item.ID)
		if len(avgs) == 0 {
			continue
		}

		cmp := ItemComparison{
			ItemID: item.ID,
			Name:   item.Name,
			Unit:   item.Unit,
			Prices: make([]LocationPrice, 0, len(avgs)),
		}
		for _, a := range avgs {
			cmp.Prices = append(cmp.Prices, LocationPrice{
				Location:     a.Location,
				AvgUnitPrice: a.AvgUnitPrice,
				SampleCount:  a.SampleCount,
			})
			seen[a.Location] = struct{}{}
		}
		sort.SliceStable(cmp.Prices, func(i, j int) bool {
			return cmp.Prices[i].Location < cmp.Prices[j].Location
		})

		if len(cmp.Prices) >= 2 {
			best, worst := cmp.Prices[0], cmp.Prices[0]
			for _, p := range cmp.Prices[1:] {
				if p.AvgUnitPrice < best.AvgUnitPrice {
					best = p
				}
				if p.AvgUnitPrice > worst.AvgUnitPrice {
					worst = p
				}
			}
			cmp.BestLocation = ptr(best.Location)
			cmp.BestPrice = ptr(best.AvgUnitPrice)
			cmp.WorstPrice = ptr(worst.AvgUnitPrice)
			if worst.AvgUnitPrice > 0 {
				cmp.SavingsPct = ptr(percentOf(worst.AvgUnitPrice-best.AvgUnitPrice, worst.AvgUnitPrice))
			}
		}

		out.Items = append(out.Items, cmp)
	}

	for loc := range seen {
		out.Locations = append(out.Locations, loc)
	}
	sort.Strings(out.Locations)

	sort.SliceStable(out.Items, func(i, j int) bool {
		if out.Items[i].Name != out.Items[j].Name {
			return out.Items[i].Name < out.Items[j].Name
		}
		return out.Items[i].ItemID < out.Items[j].ItemID
	})

	return out, nil
}

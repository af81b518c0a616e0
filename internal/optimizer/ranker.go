package optimizer

import (
	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

// BestLocation picks the cheapest location for an item.
//
// When preferred is non-empty, only locations named in it are considered, in
// the order preferred lists them. If none of the preferred locations has data
// the full set is used instead, so a preference never hides an available
// price. Ties go to the first candidate. found is false only when avgs is
// empty.
func BestLocation(avgs []pricing.LocationAverage, preferred []string) (location string, price float64, found bool) {
	if len(avgs) == 0 {
		return "", 0, false
	}

	candidates := preferredCandidates(avgs, preferred)
	if len(candidates) == 0 {
		candidates = avgs
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.AvgUnitPrice < best.AvgUnitPrice {
			best = c
		}
	}
	return best.Location, best.AvgUnitPrice, true
}

func preferredCandidates(avgs []pricing.LocationAverage, preferred []string) []pricing.LocationAverage {
	if len(preferred) == 0 {
		return nil
	}

	var out []pricing.LocationAverage
	used := make(map[string]struct{}, len(preferred))
	for _, loc := range preferred {
		if _, dup := used[loc]; dup {
			continue
		}
		used[loc] = struct{}{}
		for _, a := range avgs {
			if a.Location == loc {
				out = append(out, a)
			}
		}
	}
	return out
}

// maxAverage returns the highest average price across all locations.
func maxAverage(avgs []pricing.LocationAverage) float64 {
	maxP := avgs[0].AvgUnitPrice
	for _, a := range avgs[1:] {
		if a.AvgUnitPrice > maxP {
			maxP = a.AvgUnitPrice
		}
	}
	return maxP
}

package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

func avgs(pairs ...any) []pricing.LocationAverage {
	out := make([]pricing.LocationAverage, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, pricing.LocationAverage{
			ItemID:       "item",
			Location:     pairs[i].(string),
			AvgUnitPrice: pairs[i+1].(float64),
			SampleCount:  1,
		})
	}
	return out
}

func TestBestLocation(t *testing.T) {
	tests := []struct {
		name      string
		avgs      []pricing.LocationAverage
		preferred []string
		wantLoc   string
		wantPrice float64
		wantFound bool
	}{
		{
			name:      "cheapest overall",
			avgs:      avgs("LocalA", 5.25, "LocalB", 4.80),
			wantLoc:   "LocalB",
			wantPrice: 4.80,
			wantFound: true,
		},
		{
			name:      "preference narrows pool",
			avgs:      avgs("LocalA", 5.25, "LocalB", 4.80, "LocalC", 6.00),
			preferred: []string{"LocalC", "LocalA"},
			wantLoc:   "LocalA",
			wantPrice: 5.25,
			wantFound: true,
		},
		{
			name:      "preference without data falls back",
			avgs:      avgs("LocalA", 5.25, "LocalB", 4.80),
			preferred: []string{"Nowhere"},
			wantLoc:   "LocalB",
			wantPrice: 4.80,
			wantFound: true,
		},
		{
			name:      "tie goes to first in input order",
			avgs:      avgs("LocalA", 3.00, "LocalB", 3.00),
			wantLoc:   "LocalA",
			wantPrice: 3.00,
			wantFound: true,
		},
		{
			name:      "tie goes to first in preferred order",
			avgs:      avgs("LocalA", 3.00, "LocalB", 3.00),
			preferred: []string{"LocalB", "LocalA"},
			wantLoc:   "LocalB",
			wantPrice: 3.00,
			wantFound: true,
		},
		{
			name:      "duplicate preferences are ignored",
			avgs:      avgs("LocalA", 2.00, "LocalB", 1.00),
			preferred: []string{"LocalA", "LocalA"},
			wantLoc:   "LocalA",
			wantPrice: 2.00,
			wantFound: true,
		},
		{
			name:      "no history",
			avgs:      nil,
			preferred: []string{"LocalA"},
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, price, found := BestLocation(tt.avgs, tt.preferred)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantLoc, loc)
			assert.InDelta(t, tt.wantPrice, price, 1e-9)
		})
	}
}

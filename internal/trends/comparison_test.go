package trends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

func comparisonSnapshot() *pricing.Snapshot {
	items := []pricing.Item{
		{ID: "rice", Name: "Rice", Unit: "kg"},
		{ID: "beans", Name: "Beans", Unit: "kg"},
		{ID: "milk", Name: "Milk", Unit: "l"},
	}
	obs := append(riceHistory(),
		pricing.Observation{ItemID: "beans", Location: "LocalC", UnitPrice: 8.00, ObservedAt: day("2024-01-10")},
	)
	return pricing.NewSnapshot(1, items, obs)
}

func TestCompare(t *testing.T) {
	cmp, err := Compare(context.Background(), comparisonSnapshot())
	require.NoError(t, err)

	assert.Equal(t, []string{"LocalA", "LocalB", "LocalC"}, cmp.Locations)
	require.Len(t, cmp.Items, 2, "milk has no history")

	beans := cmp.Items[0]
	assert.Equal(t, "beans", beans.ItemID)
	require.Len(t, beans.Prices, 1)
	assert.Nil(t, beans.BestLocation, "single location has nothing to compare")
	assert.Nil(t, beans.SavingsPct)

	rice := cmp.Items[1]
	assert.Equal(t, "rice", rice.ItemID)
	require.Len(t, rice.Prices, 2)
	assert.Equal(t, "LocalA", rice.Prices[0].Location)
	assert.InDelta(t, 5.25, rice.Prices[0].AvgUnitPrice, 1e-9)
	assert.Equal(t, 2, rice.Prices[0].SampleCount)

	require.NotNil(t, rice.BestLocation)
	assert.Equal(t, "LocalB", *rice.BestLocation)
	assert.InDelta(t, 4.80, *rice.BestPrice, 1e-9)
	assert.InDelta(t, 5.25, *rice.WorstPrice, 1e-9)
	assert.InDelta(t, 8.5714, *rice.SavingsPct, 1e-3)
}

func TestCompare_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmp, err := Compare(ctx, comparisonSnapshot())
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Nil(t, cmp)
}

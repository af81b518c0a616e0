package trends

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func riceHistory() []pricing.Observation {
	return []pricing.Observation{
		{ItemID: "rice", Location: "LocalA", UnitPrice: 5.00, ObservedAt: day("2024-01-01")},
		{ItemID: "rice", Location: "LocalA", UnitPrice: 5.50, ObservedAt: day("2024-02-01")},
		{ItemID: "rice", Location: "LocalB", UnitPrice: 4.80, ObservedAt: day("2024-01-15")},
	}
}

func assertFinite(t *testing.T, values ...*float64) {
	t.Helper()
	for _, v := range values {
		if v == nil {
			continue
		}
		assert.False(t, math.IsNaN(*v) || math.IsInf(*v, 0), "non-finite value %v", *v)
	}
}

func TestSummarize_Rice(t *testing.T) {
	s := Summarize(riceHistory())

	assert.Equal(t, "rice", s.ItemID)
	assert.Equal(t, 3, s.SampleCount)
	require.NotNil(t, s.Mean)
	assert.InDelta(t, 5.10, *s.Mean, 1e-9)
	assert.InDelta(t, 5.00, *s.Median, 1e-9)
	assert.InDelta(t, 4.80, *s.Min, 1e-9)
	assert.InDelta(t, 5.50, *s.Max, 1e-9)
	require.NotNil(t, s.StdDev)
	assert.InDelta(t, 0.360555, *s.StdDev, 1e-6)

	require.NotNil(t, s.LastObservedAt)
	assert.Equal(t, day("2024-02-01"), *s.LastObservedAt)

	// Last by date is 5.50 even though the input lists 4.80 last.
	require.NotNil(t, s.LastPrice)
	assert.Equal(t, 5.50, *s.LastPrice)
	assert.Equal(t, 5.00, *s.FirstPrice)

	require.NotNil(t, s.PositionVsMeanPct)
	assert.InDelta(t, 7.843, *s.PositionVsMeanPct, 1e-3)
	assert.Equal(t, TrendUp, s.TrendClass)

	assert.InDelta(t, 10.0, *s.TotalChangePct, 1e-9)
	assert.InDelta(t, 14.583, *s.RecentChangePct, 1e-3)
	assert.InDelta(t, 7.0697, *s.VolatilityPct, 1e-3)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, TrendSummary{}, s)
	assert.Equal(t, 0, s.SampleCount)
	assert.Nil(t, s.Mean)
	assert.Nil(t, s.StdDev)
	assert.Nil(t, s.VolatilityPct)
	assert.Nil(t, s.LastObservedAt)
	assert.Empty(t, s.TrendClass)
}

func TestSummarize_SingleZeroPrice(t *testing.T) {
	s := Summarize([]pricing.Observation{
		{ItemID: "salt", Location: "LocalA", UnitPrice: 0, ObservedAt: day("2024-03-01")},
	})

	assert.Equal(t, 1, s.SampleCount)
	assert.Equal(t, TrendStable, s.TrendClass)
	require.NotNil(t, s.VolatilityPct)
	assert.Equal(t, 0.0, *s.VolatilityPct)
	assert.Nil(t, s.StdDev)
	assert.Nil(t, s.PositionVsMeanPct)
	assertFinite(t, s.Mean, s.Median, s.Min, s.Max, s.VolatilityPct, s.FirstPrice, s.LastPrice)
}

func TestSummarize_AllZeroPrices(t *testing.T) {
	s := Summarize([]pricing.Observation{
		{ItemID: "salt", UnitPrice: 0, ObservedAt: day("2024-03-01")},
		{ItemID: "salt", UnitPrice: 0, ObservedAt: day("2024-03-02")},
	})

	assert.Equal(t, TrendStable, s.TrendClass)
	assert.Equal(t, 0.0, *s.VolatilityPct)
	assert.Equal(t, 0.0, *s.PositionVsMeanPct)
	assert.Equal(t, 0.0, *s.TotalChangePct)
	assertFinite(t, s.Mean, s.StdDev, s.VolatilityPct, s.PositionVsMeanPct, s.TotalChangePct, s.RecentChangePct)
}

func TestSummarize_TwoPointBoundary(t *testing.T) {
	// mean 100, last 105 -> exactly +5%
	up := Summarize([]pricing.Observation{
		{ItemID: "x", UnitPrice: 95, ObservedAt: day("2024-01-01")},
		{ItemID: "x", UnitPrice: 105, ObservedAt: day("2024-01-02")},
	})
	require.NotNil(t, up.PositionVsMeanPct)
	assert.Equal(t, 5.0, *up.PositionVsMeanPct)
	assert.Equal(t, TrendStable, up.TrendClass)

	down := Summarize([]pricing.Observation{
		{ItemID: "x", UnitPrice: 105, ObservedAt: day("2024-01-01")},
		{ItemID: "x", UnitPrice: 95, ObservedAt: day("2024-01-02")},
	})
	assert.Equal(t, -5.0, *down.PositionVsMeanPct)
	assert.Equal(t, TrendStable, down.TrendClass)
}

func TestClassify(t *testing.T) {
	c := &Calculator{}

	tests := []struct {
		name     string
		position float64
		expected TrendClass
	}{
		{"exactly plus threshold", 5.0, TrendStable},
		{"exactly minus threshold", -5.0, TrendStable},
		{"just above", 5.0001, TrendUp},
		{"just below", -5.0001, TrendDown},
		{"zero", 0, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.classify(tt.position))
		})
	}
}

func TestCalculator_CustomThreshold(t *testing.T) {
	c := NewCalculator(10)
	s := c.Summarize(riceHistory())
	assert.Equal(t, TrendStable, s.TrendClass, "a 7.8 percent gap is inside a 10 percent band")

	assert.Equal(t, DefaultThresholdPct, NewCalculator(0).ThresholdPct)
	assert.Equal(t, DefaultThresholdPct, NewCalculator(-1).ThresholdPct)
}

func TestSummarize_Idempotent(t *testing.T) {
	obs := riceHistory()
	before := make([]pricing.Observation, len(obs))
	copy(before, obs)

	first := Summarize(obs)
	second := Summarize(obs)

	assert.Equal(t, first, second)
	assert.Equal(t, before, obs, "input must not be reordered")
}

func TestSummarize_TiesKeepInputOrder(t *testing.T) {
	obs := []pricing.Observation{
		{ItemID: "egg", UnitPrice: 1.00, ObservedAt: day("2024-01-01")},
		{ItemID: "egg", UnitPrice: 2.00, ObservedAt: day("2024-01-05")},
		{ItemID: "egg", UnitPrice: 3.00, ObservedAt: day("2024-01-05")},
	}

	s := Summarize(obs)
	assert.Equal(t, 3.00, *s.LastPrice)
	assert.InDelta(t, 50.0, *s.RecentChangePct, 1e-9)
}

func TestSummarizeContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Calculator{}).SummarizeContext(ctx, riceHistory())
	assert.ErrorIs(t, err, ErrCanceled)

	s, err := (&Calculator{}).SummarizeContext(context.Background(), riceHistory())
	require.NoError(t, err)
	assert.Equal(t, 3, s.SampleCount)
}

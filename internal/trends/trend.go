// Package trends derives per-item price statistics and a three-way trend
// classification from a price history.
package trends

import (
	"context"
	"sort"
	"time"

	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

// DefaultThresholdPct is the distance from the historical mean, in percent,
// beyond which the last price counts as trending up or down.
const DefaultThresholdPct = 5.0

// ErrCanceled is returned when the caller's context ends before a summary is complete.
var ErrCanceled = pricing.ErrCanceled

// TrendClass describes where the latest price sits against the historical mean.
type TrendClass string

const (
	TrendUp     TrendClass = "up"
	TrendStable TrendClass = "stable"
	TrendDown   TrendClass = "down"
)

// TrendSummary is the statistical digest of one item's price history.
// Every pointer field is nil when SampleCount is 0 so that "no data" never
// reads as a genuine zero.
type TrendSummary struct {
	ItemID      string `json:"itemId"`
	SampleCount int    `json:"sampleCount"`

	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	StdDev *float64 `json:"stdDev"` // Sample stddev (n-1); nil below 2 samples

	LastObservedAt *time.Time `json:"lastObservedAt"`

	FirstPrice *float64 `json:"firstPrice"`
	LastPrice  *float64 `json:"lastPrice"`

	// Present only with 2+ samples.
	PositionVsMeanPct *float64 `json:"positionVsMeanPct"`
	TotalChangePct    *float64 `json:"totalChangePct"`  // last vs first
	RecentChangePct   *float64 `json:"recentChangePct"` // last vs previous

	TrendClass    TrendClass `json:"trendClass,omitempty"`
	VolatilityPct *float64   `json:"volatilityPct"`
}

// Calculator summarizes price histories using a configurable trend threshold.
// The zero value uses DefaultThresholdPct.
type Calculator struct {
	ThresholdPct float64
}

// NewCalculator returns a calculator with the given threshold; non-positive
// values fall back to DefaultThresholdPct.
func NewCalculator(thresholdPct float64) *Calculator {
	if thresholdPct <= 0 {
		thresholdPct = DefaultThresholdPct
	}
	return &Calculator{ThresholdPct: thresholdPct}
}

// Summarize computes a TrendSummary with the default threshold.
func Summarize(observations []pricing.Observation) TrendSummary {
	return (&Calculator{}).Summarize(observations)
}

// SummarizeContext is Summarize that honours cancellation of ctx.
func (c *Calculator) SummarizeContext(ctx context.Context, observations []pricing.Observation) (TrendSummary, error) {
	if err := ctx.Err(); err != nil {
		return TrendSummary{}, ErrCanceled
	}
	s := c.Summarize(observations)
	if err := ctx.Err(); err != nil {
		return TrendSummary{}, ErrCanceled
	}
	return s, nil
}

// Summarize computes the statistics for one item's observations.
// The input is not modified. Observations are ordered by ObservedAt with
// a stable sort, so equal dates keep the caller's order.
func (c *Calculator) Summarize(observations []pricing.Observation) TrendSummary {
	summary := TrendSummary{}
	if len(observations) == 0 {
		return summary
	}

	ordered := make([]pricing.Observation, len(observations))
	copy(ordered, observations)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ObservedAt.Before(ordered[j].ObservedAt)
	})

	prices := make([]float64, len(ordered))
	for i, o := range ordered {
		prices[i] = o.UnitPrice
	}

	n := len(prices)
	mean := meanOf(prices)
	minP, maxP := minMax(prices)
	median := medianOf(prices)
	last := ordered[n-1]

	summary.ItemID = ordered[0].ItemID
	summary.SampleCount = n
	summary.Mean = ptr(mean)
	summary.Median = ptr(median)
	summary.Min = ptr(minP)
	summary.Max = ptr(maxP)
	summary.LastObservedAt = ptr(last.ObservedAt)
	summary.FirstPrice = ptr(prices[0])
	summary.LastPrice = ptr(last.UnitPrice)
	summary.TrendClass = TrendStable
	summary.VolatilityPct = ptr(0.0)

	if n < 2 {
		return summary
	}

	stddev := sampleStdDev(prices, mean)
	summary.StdDev = ptr(stddev)
	summary.VolatilityPct = ptr(percentOf(stddev, mean))

	position := percentChange(last.UnitPrice, mean)
	summary.PositionVsMeanPct = ptr(position)
	summary.TotalChangePct = ptr(percentChange(last.UnitPrice, prices[0]))
	summary.RecentChangePct = ptr(percentChange(last.UnitPrice, prices[n-2]))
	summary.TrendClass = c.classify(position)

	return summary
}

func (c *Calculator) classify(positionPct float64) TrendClass {
	threshold := c.ThresholdPct
	if threshold <= 0 {
		threshold = DefaultThresholdPct
	}
	switch {
	case positionPct > threshold:
		return TrendUp
	case positionPct < -threshold:
		return TrendDown
	default:
		return TrendStable
	}
}

func ptr[T any](v T) *T { return &v }

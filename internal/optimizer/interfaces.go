package optimizer

import (
	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

// PriceDataProvider is the read-only view of price history the planner needs.
// Implementations must be safe for concurrent reads.
type PriceDataProvider interface {
	// LocationAverages returns one entry per location with data for the item,
	// in a stable order. Empty when the item has no history.
	LocationAverages(itemID string) []pricing.LocationAverage

	// GlobalMean returns the mean unit price over all of the item's observations.
	GlobalMean(itemID string) (float64, bool)

	// ItemMeta returns display metadata; ok is false for unknown items.
	ItemMeta(itemID string) (name, unit string, ok bool)
}

// SnapshotProvider is a versioned price view. The version changes whenever
// the observation set does, which is what the result cache keys on.
// *pricing.Snapshot implements it.
type SnapshotProvider interface {
	PriceDataProvider

	Version() int64
	Observations(itemID string) []pricing.Observation
	Items() []pricing.Item
}

var _ SnapshotProvider = (*pricing.Snapshot)(nil)

// Package pricing holds the price-history domain types shared by the trend
// calculator, the shopping planner and the storage layer.
package pricing

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrCanceled reports that the caller gave up before a computation finished.
// Partial results are never returned alongside it.
var ErrCanceled = errors.New("computation canceled")

// UnknownLocation is reported for items that have no price observations at all.
const UnknownLocation = "unknown"

// Item is the inventory metadata the price core needs for display.
type Item struct {
	ID   string // Stable identifier owned by the inventory subsystem
	Name string // Display name
	Unit string // Display unit ("kg", "unit", ...)
}

// Observation is a single recorded unit price for an item at a location.
// Observations are append-only and never mutated by this service.
type Observation struct {
	ItemID     string
	Location   string // Free-text label, may be empty
	UnitPrice  float64
	ObservedAt time.Time
}

// LocationAverage aggregates every observation of one item at one location.
type LocationAverage struct {
	ItemID         string
	Location       string
	AvgUnitPrice   float64
	LastObservedAt time.Time
	SampleCount    int
}

// NormalizeLocation canonicalizes a location label so that the same store typed
// twice with different Unicode composition or stray whitespace is grouped once.
// Case is preserved because labels are rendered back to the user verbatim.
func NormalizeLocation(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

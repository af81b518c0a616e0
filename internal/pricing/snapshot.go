package pricing

import (
	"sort"
	"time"
)

// Snapshot is an immutable, in-memory view of the price history.
// It is built once (from Postgres or fixtures) and then shared read-only by any
// number of goroutines, so none of its methods lock.
type Snapshot struct {
	version  int64
	loadedAt time.Time

	items map[string]Item

	// observations maps itemID -> observations in ascending ObservedAt order,
	// ties kept in load order.
	observations map[string][]Observation

	// locationAverages maps itemID -> per-location aggregates sorted by location.
	locationAverages map[string][]LocationAverage

	// globalMean maps itemID -> mean unit price over all observations.
	globalMean map[string]float64

	locations []string
}

// NewSnapshot builds a snapshot from item metadata and raw observations.
// Observations for unknown items are kept; the planner reports such items as
// not found because metadata is the source of truth for existence.
// version must change whenever the underlying observation set changes.
func NewSnapshot(version int64, items []Item, observations []Observation) *Snapshot {
	s := &Snapshot{
		version:          version,
		loadedAt:         time.Now(),
		items:            make(map[string]Item, len(items)),
		observations:     make(map[string][]Observation),
		locationAverages: make(map[string][]LocationAverage),
		globalMean:       make(map[string]float64),
	}

	for _, it := range items {
		s.items[it.ID] = it
	}

	for _, o := range observations {
		o.Location = NormalizeLocation(o.Location)
		s.observations[o.ItemID] = append(s.observations[o.ItemID], o)
	}

	seen := make(map[string]struct{})
	for itemID, obs := range s.observations {
		sort.SliceStable(obs, func(i, j int) bool {
			return obs[i].ObservedAt.Before(obs[j].ObservedAt)
		})

		avgs := AggregateByLocation(obs)
		s.locationAverages[itemID] = avgs

		var sum float64
		for _, o := range obs {
			sum += o.UnitPrice
		}
		s.globalMean[itemID] = sum / float64(len(obs))

		for _, a := range avgs {
			if a.Location == "" {
				continue
			}
			seen[a.Location] = struct{}{}
		}
	}

	s.locations = make([]string, 0, len(seen))
	for loc := range seen {
		s.locations = append(s.locations, loc)
	}
	sort.Strings(s.locations)

	return s
}

// AggregateByLocation groups observations of a single item by location and
// returns one LocationAverage per location, sorted by location label.
func AggregateByLocation(obs []Observation) []LocationAverage {
	type acc struct {
		sum  float64
		n    int
		last time.Time
	}

	byLoc := make(map[string]*acc)
	itemID := ""
	for _, o := range obs {
		itemID = o.ItemID
		a, ok := byLoc[o.Location]
		if !ok {
			a = &acc{}
			byLoc[o.Location] = a
		}
		a.sum += o.UnitPrice
		a.n++
		if o.ObservedAt.After(a.last) {
			a.last = o.ObservedAt
		}
	}

	out := make([]LocationAverage, 0, len(byLoc))
	for loc, a := range byLoc {
		out = append(out, LocationAverage{
			ItemID:         itemID,
			Location:       loc,
			AvgUnitPrice:   a.sum / float64(a.n),
			LastObservedAt: a.last,
			SampleCount:    a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// Version identifies the observation set this snapshot was built from.
func (s *Snapshot) Version() int64 { return s.version }

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// ItemMeta returns display metadata for an item.
func (s *Snapshot) ItemMeta(itemID string) (name, unit string, ok bool) {
	it, ok := s.items[itemID]
	if !ok {
		return "", "", false
	}
	return it.Name, it.Unit, true
}

// LocationAverages returns the per-location aggregates for an item.
// The returned slice must not be modified.
func (s *Snapshot) LocationAverages(itemID string) []LocationAverage {
	return s.locationAverages[itemID]
}

// GlobalMean returns the mean unit price over every observation of the item.
func (s *Snapshot) GlobalMean(itemID string) (float64, bool) {
	m, ok := s.globalMean[itemID]
	return m, ok
}

// Observations returns the item's observations in ascending date order.
// The returned slice must not be modified.
func (s *Snapshot) Observations(itemID string) []Observation {
	return s.observations[itemID]
}

// Items returns all known items sorted by ID.
func (s *Snapshot) Items() []Item {
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Locations returns the distinct, non-empty purchase locations, sorted.
func (s *Snapshot) Locations() []string {
	out := make([]string, len(s.locations))
	copy(out, s.locations)
	return out
}

// ObservationCount returns the total number of observations in the snapshot.
func (s *Snapshot) ObservationCount() int {
	n := 0
	for _, obs := range s.observations {
		n += len(obs)
	}
	return n
}

package optimizer

import (
	"context"
	"math"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
)

const tracerName = "github.com/contatogonetwork/urban-space-broccoli/internal/optimizer"

// Planner turns a shopping list into a per-item location recommendation.
// It holds no per-request state and is safe for concurrent use.
type Planner struct {
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewPlanner creates a new shopping planner.
func NewPlanner() *Planner {
	return &Planner{
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "shopping_planner").Logger(),
	}
}

// Plan computes a ShoppingPlan for req against the given price data.
//
// Items are processed in ascending itemID order. A quantity that is not
// finite and positive, or an unknown item, fails the whole call; an item without price history yields a
// line with RecommendedLocation "unknown" and nil price fields. If ctx ends
// before every line is built, ErrCanceled is returned and no plan is produced.
func (p *Planner) Plan(ctx context.Context, req *ShoppingRequest, provider PriceDataProvider) (*ShoppingPlan, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "optimizer.Plan")
	defer span.End()

	plan, err := p.plan(ctx, req, provider)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("plan.items", len(plan.Lines)),
		attribute.Int("plan.priced_lines", plan.PricedLines),
		attribute.Float64("plan.total_cost", plan.TotalCost),
	)
	return plan, nil
}

func (p *Planner) plan(ctx context.Context, req *ShoppingRequest, provider PriceDataProvider) (*ShoppingPlan, error) {
	ids := req.ItemIDs()
	p.metrics.RecordPlanSize(len(ids))

	preferred := make([]string, 0, len(req.PreferredLocations))
	for _, loc := range req.PreferredLocations {
		if n := pricing.NormalizeLocation(loc); n != "" {
			preferred = append(preferred, n)
		}
	}

	plan := &ShoppingPlan{
		Lines:          make([]*LineItem, 0, len(ids)),
		CostByLocation: make(map[string]float64),
	}
	if v, ok := provider.(interface{ Version() int64 }); ok {
		plan.SnapshotVersion = v.Version()
	}

	for _, itemID := range ids {
		if ctx.Err() != nil {
			return nil, ErrCanceled
		}

		line, err := p.buildLine(itemID, req.Quantities[itemID], preferred, provider)
		if err != nil {
			p.logger.Debug().Err(err).Str("item_id", itemID).Msg("Shopping plan rejected")
			return nil, err
		}
		plan.Lines = append(plan.Lines, line)

		if !line.HasPrice() {
			continue
		}
		plan.PricedLines++
		plan.TotalCost += *line.LineTotal
		plan.CostByLocation[line.RecommendedLocation] += *line.LineTotal
		if line.SavingsValue != nil {
			plan.TotalSavings += *line.SavingsValue
		}
	}

	if ctx.Err() != nil {
		return nil, ErrCanceled
	}

	if isNonFinite(plan.TotalCost) || isNonFinite(plan.TotalSavings) {
		return nil, ErrInvalidRequest{Field: "items", Reason: "plan totals overflow", Index: -1}
	}

	if denom := plan.TotalCost + plan.TotalSavings; plan.TotalSavings > 0 && denom > 0 {
		plan.SavingsPct = ptr(plan.TotalSavings * 100 / denom)
	}
	p.metrics.RecordUnpricedLines(len(plan.Lines) - plan.PricedLines)

	return plan, nil
}

// buildLine computes the recommendation for a single item.
func (p *Planner) buildLine(itemID string, quantity float64, preferred []string, provider PriceDataProvider) (*LineItem, error) {
	if !ValidQuantity(quantity) {
		return nil, &ItemError{ItemID: itemID, Err: ErrInvalidQuantity}
	}

	name, unit, ok := provider.ItemMeta(itemID)
	if !ok {
		return nil, &ItemError{ItemID: itemID, Err: ErrItemNotFound}
	}

	line := &LineItem{
		ItemID:              itemID,
		Name:                name,
		Quantity:            quantity,
		Unit:                unit,
		RecommendedLocation: pricing.UnknownLocation,
	}

	avgs := provider.LocationAverages(itemID)
	location, unitPrice, found := BestLocation(avgs, preferred)
	if !found {
		return line, nil
	}

	line.RecommendedLocation = location
	line.UnitPrice = ptr(unitPrice)
	line.LineTotal = ptr(unitPrice * quantity)
	line.LocationsCompared = len(avgs)

	if len(avgs) >= 2 {
		maxPrice := maxAverage(avgs)
		line.MaxUnitPrice = ptr(maxPrice)
		line.SavingsValue = ptr((maxPrice - unitPrice) * quantity)
		if maxPrice != 0 {
			line.SavingsPct = ptr((maxPrice - unitPrice) * 100 / maxPrice)
		}
	}

	// A finite quantity can still overflow against a large price.
	if isNonFinite(*line.LineTotal) || (line.SavingsValue != nil && isNonFinite(*line.SavingsValue)) {
		return nil, &ItemError{ItemID: itemID, Err: ErrInvalidQuantity}
	}

	if mean, ok := provider.GlobalMean(itemID); ok && mean != 0 {
		line.VsGlobalMeanPct = ptr((unitPrice - mean) * 100 / mean)
	}

	return line, nil
}

func isNonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func ptr[T any](v T) *T { return &v }

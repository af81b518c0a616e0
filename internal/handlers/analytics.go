package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contatogonetwork/urban-space-broccoli/internal/optimizer"
	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
	"github.com/contatogonetwork/urban-space-broccoli/internal/store"
)

// SnapshotSource serves the current price snapshot. *store.Loader implements it.
type SnapshotSource interface {
	Current(ctx context.Context) (*pricing.Snapshot, error)
	Refresh(ctx context.Context) (*pricing.Snapshot, error)
	IsHealthy(ctx context.Context) bool
}

var _ SnapshotSource = (*store.Loader)(nil)

// Global analytics instances (initialized by the application)
var (
	snapshotSource  SnapshotSource
	resultCache     *optimizer.ResultCache
	maxRequestItems int
)

// InitAnalytics wires the snapshot source and result cache used by the
// price and shopping endpoints. Called once during startup.
func InitAnalytics(source SnapshotSource, cache *optimizer.ResultCache, maxItems int) {
	snapshotSource = source
	resultCache = cache
	maxRequestItems = maxItems
}

// currentSnapshot returns the served snapshot, writing the error response
// itself when none is available.
func currentSnapshot(c *gin.Context) (*pricing.Snapshot, bool) {
	if snapshotSource == nil || resultCache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analytics not initialized"})
		return nil, false
	}

	snap, err := snapshotSource.Current(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return snap, true
}

// respondError maps domain errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var invalid optimizer.ErrInvalidRequest

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &invalid), errors.Is(err, optimizer.ErrInvalidQuantity):
		status = http.StatusBadRequest
	case errors.Is(err, optimizer.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pricing.ErrCanceled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
	case errors.Is(err, store.ErrNotReady), errors.Is(err, store.ErrCircuitOpen):
		status = http.StatusServiceUnavailable
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

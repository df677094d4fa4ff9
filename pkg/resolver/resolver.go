// Package resolver maps coordinates to the region that contains them.
package resolver

import (
	"log/slog"

	"github.com/kass/go-geo-label/pkg/boundary"
	"github.com/kass/go-geo-label/pkg/models"
)

// Resolver assigns a region to a coordinate. ok is false when no region
// contains it and the caller should skip the coordinate.
type Resolver interface {
	Resolve(c models.Coordinate) (region models.Region, ok bool)
}

// PolygonResolver resolves coordinates by polygon containment against a
// boundary store. When several regions contain a point the first one in
// store order wins and the overlap is logged.
type PolygonResolver struct {
	store    *boundary.Store
	logger   *slog.Logger
	reported map[[2]int]bool
}

// NewPolygonResolver creates a resolver over store
func NewPolygonResolver(store *boundary.Store, logger *slog.Logger) *PolygonResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &PolygonResolver{
		store:    store,
		logger:   logger,
		reported: make(map[[2]int]bool),
	}
}

// Resolve returns the first region in store order whose polygon contains c
func (r *PolygonResolver) Resolve(c models.Coordinate) (models.Region, bool) {
	first := -1
	for _, idx := range r.store.Candidates(c) {
		if !r.store.Contains(idx, c) {
			continue
		}
		if first < 0 {
			first = idx
			continue
		}
		r.reportOverlap(first, idx, c)
	}

	if first < 0 {
		return models.Region{}, false
	}
	return r.store.Region(first), true
}

func (r *PolygonResolver) reportOverlap(first, other int, c models.Coordinate) {
	key := [2]int{first, other}
	if r.reported[key] {
		return
	}
	r.reported[key] = true
	r.logger.Warn("overlapping regions in boundary data",
		"coordinate", c.String(),
		"kept", r.store.Region(first).Label,
		"ignored", r.store.Region(other).Label)
}

var _ Resolver = (*PolygonResolver)(nil)

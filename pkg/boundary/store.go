// Package boundary loads labeled region polygons and answers point-in-region
// queries against them.
package boundary

import (
	"errors"
	"fmt"

	"github.com/kass/go-geo-label/pkg/models"
	"github.com/kass/go-geo-label/pkg/rtree"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var (
	// ErrNoRegions is returned when a dataset yields no usable regions
	ErrNoRegions = errors.New("boundary dataset contains no regions")
	// ErrNotPolygonal is returned for features that are not (multi)polygons
	ErrNotPolygonal = errors.New("region geometry is not a polygon or multipolygon")
)

// Store holds regions in load order plus a bounding-box index over them.
// It is read-only once built.
type Store struct {
	regions []models.Region
	index   *rtree.RegionIndex
}

// NewStore validates regions and indexes their bounding boxes.
// Store order is the order of the slice.
func NewStore(regions []models.Region) (*Store, error) {
	if len(regions) == 0 {
		return nil, ErrNoRegions
	}

	index := rtree.NewRegionIndex()
	for i, region := range regions {
		if region.Label == "" {
			return nil, fmt.Errorf("region %d has an empty label", i)
		}
		if !polygonal(region.Geometry) {
			return nil, fmt.Errorf("region %q: %w", region.Label, ErrNotPolygonal)
		}
		if err := index.Insert(i, models.BoxFromBound(region.Bound())); err != nil {
			return nil, fmt.Errorf("region %q: %w", region.Label, err)
		}
	}

	return &Store{regions: regions, index: index}, nil
}

// Len returns the number of regions
func (s *Store) Len() int {
	return len(s.regions)
}

// Region returns the region at store position i
func (s *Store) Region(i int) models.Region {
	return s.regions[i]
}

// Regions returns all regions in store order
func (s *Store) Regions() []models.Region {
	return s.regions
}

// Labels returns the region labels in store order
func (s *Store) Labels() []string {
	labels := make([]string, len(s.regions))
	for i, r := range s.regions {
		labels[i] = r.Label
	}
	return labels
}

// Candidates returns store positions of regions whose bounding box covers c
func (s *Store) Candidates(c models.Coordinate) []int {
	return s.index.Candidates(c)
}

// Intersecting returns the regions whose bounding box overlaps box, in store order
func (s *Store) Intersecting(box models.BoundingBox) ([]models.Region, error) {
	idx, err := s.index.Intersecting(box)
	if err != nil {
		return nil, err
	}
	regions := make([]models.Region, len(idx))
	for i, j := range idx {
		regions[i] = s.regions[j]
	}
	return regions, nil
}

// Contains reports whether region i contains c
func (s *Store) Contains(i int, c models.Coordinate) bool {
	return Contains(s.regions[i].Geometry, c)
}

// Contains tests a coordinate against a polygonal geometry
func Contains(g orb.Geometry, c models.Coordinate) bool {
	pt := c.Point()
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, pt)
	}
	return false
}

func polygonal(g orb.Geometry) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return len(geom) > 0
	case orb.MultiPolygon:
		return len(geom) > 0
	}
	return false
}

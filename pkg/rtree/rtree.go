// Package rtree indexes region bounding boxes in an R-Tree so point lookups
// only test the polygons whose extent covers the point.
package rtree

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/go-geo-label/pkg/models"
)

const (
	tolerance   = 1e-9
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialEntry wraps a store position to implement rtreego.Spatial
type spatialEntry struct {
	index int
	rect  *rtreego.Rect
}

func (e *spatialEntry) Bounds() *rtreego.Rect {
	return e.rect
}

var _ rtreego.Spatial = (*spatialEntry)(nil)

// RegionIndex maps bounding boxes to positions in a region store.
// Axis order is (lon, lat) to match planar geometry.
type RegionIndex struct {
	tree  *rtreego.Rtree
	count int
}

// NewRegionIndex creates an empty index
func NewRegionIndex() *RegionIndex {
	return &RegionIndex{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren),
	}
}

// Insert adds the bounding box of the region stored at position idx
func (r *RegionIndex) Insert(idx int, box models.BoundingBox) error {
	rect, err := boxToRect(box)
	if err != nil {
		return fmt.Errorf("index region %d: %w", idx, err)
	}
	r.tree.Insert(&spatialEntry{index: idx, rect: rect})
	r.count++
	return nil
}

// Candidates returns the positions of all regions whose box covers c,
// in ascending store order
func (r *RegionIndex) Candidates(c models.Coordinate) []int {
	query := rtreego.Point{c.Lon, c.Lat}.ToRect(tolerance)
	return collect(r.tree.SearchIntersect(query))
}

// Intersecting returns the positions of all regions whose box intersects box,
// in ascending store order
func (r *RegionIndex) Intersecting(box models.BoundingBox) ([]int, error) {
	rect, err := boxToRect(box)
	if err != nil {
		return nil, err
	}
	return collect(r.tree.SearchIntersect(rect)), nil
}

// Count returns the number of indexed boxes
func (r *RegionIndex) Count() int {
	return r.count
}

func collect(results []rtreego.Spatial) []int {
	out := make([]int, 0, len(results))
	for _, result := range results {
		entry, ok := result.(*spatialEntry)
		if !ok {
			continue
		}
		out = append(out, entry.index)
	}
	// rtreego returns hits in tree order; callers rely on store order
	sort.Ints(out)
	return out
}

func boxToRect(box models.BoundingBox) (*rtreego.Rect, error) {
	if box.TopRight.Lon < box.BottomLeft.Lon || box.TopRight.Lat < box.BottomLeft.Lat {
		return nil, fmt.Errorf("invalid bounding box %v-%v", box.BottomLeft, box.TopRight)
	}
	width := box.TopRight.Lon - box.BottomLeft.Lon
	height := box.TopRight.Lat - box.BottomLeft.Lat
	// rtreego rejects zero-length sides
	if width <= 0 {
		width = tolerance
	}
	if height <= 0 {
		height = tolerance
	}
	return rtreego.NewRect(
		rtreego.Point{box.BottomLeft.Lon, box.BottomLeft.Lat},
		[]float64{width, height},
	)
}

package models

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/paulmach/orb"
)

// Coordinate represents a geographic location with latitude and longitude
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies within WGS84 bounds
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Point returns the coordinate as a planar point. X is longitude, Y is latitude.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Lat, c.Lon)
}

// Region is a labeled administrative boundary
type Region struct {
	Label    string       `json:"label"`
	Geometry orb.Geometry `json:"-"`
}

// Bound returns the bounding box of the region geometry
func (r Region) Bound() orb.Bound {
	if r.Geometry == nil {
		return orb.Bound{}
	}
	return r.Geometry.Bound()
}

// BoundingBox represents a rectangular area defined by two corners
type BoundingBox struct {
	BottomLeft Coordinate
	TopRight   Coordinate
}

// Contains reports whether c lies inside the box, edges included
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.BottomLeft.Lat && c.Lat <= b.TopRight.Lat &&
		c.Lon >= b.BottomLeft.Lon && c.Lon <= b.TopRight.Lon
}

// BoxFromBound converts a planar bound (x=lon, y=lat) to a BoundingBox
func BoxFromBound(b orb.Bound) BoundingBox {
	return BoundingBox{
		BottomLeft: Coordinate{Lat: b.Min.Y(), Lon: b.Min.X()},
		TopRight:   Coordinate{Lat: b.Max.Y(), Lon: b.Max.X()},
	}
}

// LabelMapping maps string-encoded image identifiers to region labels
type LabelMapping map[string]string

// Keys returns the identifiers in numeric order. Non-numeric keys sort after
// numeric ones, lexically.
func (m LabelMapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

// LabelScore pairs a vocabulary label with its probability
type LabelScore struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Comunidades is the default label vocabulary: Spain's autonomous communities and cities.
var Comunidades = []string{
	"Andalucía",
	"Aragón",
	"Asturias",
	"Canary Is.",
	"Cantabria",
	"Castilla-La Mancha",
	"Castilla y León",
	"Cataluña",
	"Valenciana",
	"Extremadura",
	"Galicia",
	"Islas Baleares",
	"La Rioja",
	"Madrid",
	"Murcia",
	"País Vasco",
	"Navarra",
	"Ceuta",
	"Melilla",
}

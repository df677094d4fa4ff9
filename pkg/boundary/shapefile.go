package boundary

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/kass/go-geo-label/pkg/models"
	"github.com/paulmach/orb"
)

// LoadShapefile reads polygon records and their .dbf attributes.
// Record order is store order.
func LoadShapefile(path string, opts Options) ([]models.Region, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shapefile: %w", err)
	}
	defer reader.Close()

	columns := make(map[string]int)
	for i, f := range reader.Fields() {
		columns[strings.ToLower(f.String())] = i
	}

	label := opts.labelProperty()
	labelIdx, ok := columns[strings.ToLower(label)]
	if !ok {
		return nil, fmt.Errorf("%s: no %q attribute", path, label)
	}

	var regions []models.Region
	for reader.Next() {
		n, shape := reader.Shape()

		attr := func(key string) (string, bool) {
			idx, ok := columns[strings.ToLower(key)]
			if !ok {
				return "", false
			}
			return cleanAttribute(reader.ReadAttribute(n, idx)), true
		}
		if !opts.keep(attr) {
			continue
		}

		name := cleanAttribute(reader.ReadAttribute(n, labelIdx))
		if name == "" {
			return nil, fmt.Errorf("%s: record %d has an empty %q attribute", path, n, label)
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok {
			return nil, fmt.Errorf("%s: record %d (%s): %w", path, n, name, ErrNotPolygonal)
		}
		regions = append(regions, models.Region{Label: name, Geometry: shapeGeometry(poly)})
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read shapefile: %w", err)
	}

	return regions, nil
}

// shapeGeometry groups shapefile parts into polygons. Outer rings are
// clockwise; counter-clockwise rings are holes of the preceding outer ring.
func shapeGeometry(p *shp.Polygon) orb.Geometry {
	var polys orb.MultiPolygon
	for part := range p.Parts {
		start := int(p.Parts[part])
		end := len(p.Points)
		if part+1 < len(p.Parts) {
			end = int(p.Parts[part+1])
		}

		ring := make(orb.Ring, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}

		if len(polys) == 0 || ring.Orientation() == orb.CW {
			polys = append(polys, orb.Polygon{ring})
			continue
		}
		last := len(polys) - 1
		polys[last] = append(polys[last], ring)
	}

	if len(polys) == 1 {
		return polys[0]
	}
	return polys
}

func cleanAttribute(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

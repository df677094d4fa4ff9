package boundary

import (
	"fmt"
	"os"

	"github.com/kass/go-geo-label/pkg/models"
	"github.com/paulmach/orb/geojson"
)

// LoadGeoJSON reads a FeatureCollection and keeps features that pass the filter.
// Feature order in the file is store order.
func LoadGeoJSON(path string, opts Options) ([]models.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boundaries: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	label := opts.labelProperty()
	regions := make([]models.Region, 0, len(fc.Features))
	for i, f := range fc.Features {
		attr := func(key string) (string, bool) {
			v, ok := f.Properties[key]
			if !ok || v == nil {
				return "", false
			}
			return fmt.Sprint(v), true
		}
		if !opts.keep(attr) {
			continue
		}

		name, ok := attr(label)
		if !ok || name == "" {
			return nil, fmt.Errorf("%s: feature %d has no %q property", path, i, label)
		}
		if !polygonal(f.Geometry) {
			return nil, fmt.Errorf("%s: feature %d (%s): %w", path, i, name, ErrNotPolygonal)
		}
		regions = append(regions, models.Region{Label: name, Geometry: f.Geometry})
	}

	return regions, nil
}

// WriteGeoJSON writes regions as a FeatureCollection with the label stored
// under labelProperty
func WriteGeoJSON(path string, regions []models.Region, labelProperty string) error {
	if labelProperty == "" {
		labelProperty = DefaultLabelProperty
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		f := geojson.NewFeature(r.Geometry)
		f.Properties[labelProperty] = r.Label
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode boundaries: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

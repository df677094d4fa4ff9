package boundary

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kass/go-geo-label/pkg/models"
	"github.com/kass/go-geo-label/pkg/postgis"
)

// DefaultLabelProperty is the attribute that names a region
const DefaultLabelProperty = "region"

// Options controls how features become regions
type Options struct {
	// LabelProperty names the attribute holding the region label
	LabelProperty string
	// Filter keeps only features whose attributes equal these values,
	// e.g. {"admin": "Spain"}
	Filter map[string]string
	// Table and GeometryColumn apply to PostGIS sources only
	Table          string
	GeometryColumn string
}

func (o Options) labelProperty() string {
	if o.LabelProperty == "" {
		return DefaultLabelProperty
	}
	return o.LabelProperty
}

// keep reports whether a feature with the given attribute lookup passes the filter
func (o Options) keep(attr func(string) (string, bool)) bool {
	for key, want := range o.Filter {
		got, ok := attr(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// ParseFilter turns "key=value" pairs into a filter map
func ParseFilter(pairs []string) (map[string]string, error) {
	filter := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		filter[key] = strings.TrimSpace(value)
	}
	return filter, nil
}

// LoadRegions reads regions from a GeoJSON file, an ESRI shapefile, a gob
// snapshot or a PostGIS DSN, chosen by extension or URL scheme
func LoadRegions(ctx context.Context, source string, opts Options) ([]models.Region, error) {
	var (
		regions []models.Region
		err     error
	)

	switch {
	case strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://"):
		regions, err = loadPostGIS(ctx, source, opts)
	default:
		switch strings.ToLower(filepath.Ext(source)) {
		case ".geojson", ".json":
			regions, err = LoadGeoJSON(source, opts)
		case ".shp":
			regions, err = LoadShapefile(source, opts)
		case ".gob":
			regions, err = LoadSnapshot(source)
		default:
			return nil, fmt.Errorf("unsupported boundary source %q", source)
		}
	}
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, fmt.Errorf("%s: %w", source, ErrNoRegions)
	}
	return regions, nil
}

// Load reads a source and builds a Store from it
func Load(ctx context.Context, source string, opts Options) (*Store, error) {
	regions, err := LoadRegions(ctx, source, opts)
	if err != nil {
		return nil, err
	}
	return NewStore(regions)
}

func loadPostGIS(ctx context.Context, dsn string, opts Options) ([]models.Region, error) {
	db, err := postgis.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.LoadRegions(ctx, postgis.Table{
		Name:           opts.Table,
		LabelColumn:    opts.labelProperty(),
		GeometryColumn: opts.GeometryColumn,
		Filter:         opts.Filter,
	})
}

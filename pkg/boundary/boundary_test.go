package boundary

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/kass/go-geo-label/pkg/models"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

const fixture = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"region": "North", "admin": "Testland"},
     "geometry": {"type": "Polygon", "coordinates": [[[-10,0],[10,0],[10,10],[-10,10],[-10,0]]]}},
    {"type": "Feature", "properties": {"region": "South", "admin": "Testland"},
     "geometry": {"type": "Polygon", "coordinates": [[[-10,-10],[10,-10],[10,-0.000001],[-10,-0.000001],[-10,-10]]]}},
    {"type": "Feature", "properties": {"region": "Elsewhere", "admin": "Otherland"},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[50,50],[60,50],[60,60],[50,60],[50,50]]]]}}
  ]
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regions.geojson")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return path
}

func TestLoadGeoJSON(t *testing.T) {
	path := writeFixture(t)

	regions, err := LoadGeoJSON(path, Options{})
	require.NoError(t, err)
	require.Len(t, regions, 3)
	assert.Equal(t, "North", regions[0].Label)
	assert.Equal(t, "South", regions[1].Label)
	assert.IsType(t, orb.MultiPolygon{}, regions[2].Geometry)
}

func TestLoadGeoJSONFilter(t *testing.T) {
	path := writeFixture(t)

	regions, err := LoadGeoJSON(path, Options{Filter: map[string]string{"admin": "Testland"}})
	require.NoError(t, err)
	require.Len(t, regions, 2)

	regions, err = LoadGeoJSON(path, Options{Filter: map[string]string{"admin": "Nowhere"}})
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestLoadGeoJSONMissingLabel(t *testing.T) {
	path := writeFixture(t)
	_, err := LoadGeoJSON(path, Options{LabelProperty: "name"})
	assert.Error(t, err)
}

func TestLoadGeoJSONNotPolygonal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.geojson")
	data := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"region":"P"},"geometry":{"type":"Point","coordinates":[1,2]}}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := LoadGeoJSON(path, Options{})
	assert.ErrorIs(t, err, ErrNotPolygonal)
}

func TestLoadRegionsDispatch(t *testing.T) {
	ctx := context.Background()
	path := writeFixture(t)

	store, err := Load(ctx, path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, []string{"North", "South", "Elsewhere"}, store.Labels())

	_, err = LoadRegions(ctx, "regions.kml", Options{})
	assert.Error(t, err)

	_, err = LoadRegions(ctx, path, Options{Filter: map[string]string{"admin": "Nowhere"}})
	assert.ErrorIs(t, err, ErrNoRegions)

	_, err = LoadRegions(ctx, filepath.Join(t.TempDir(), "missing.geojson"), Options{})
	assert.Error(t, err)
}

func TestWriteGeoJSONAndSnapshot(t *testing.T) {
	dir := t.TempDir()
	regions := []models.Region{
		{Label: "Andalucía", Geometry: square(-7.5, 36, -1.6, 38.7)},
		{Label: "Islas Baleares", Geometry: orb.MultiPolygon{square(1, 38.6, 2, 39.2), square(2.3, 39.2, 3.5, 40.1)}},
	}

	geoPath := filepath.Join(dir, "out.geojson")
	require.NoError(t, WriteGeoJSON(geoPath, regions, "name"))
	loaded, err := LoadGeoJSON(geoPath, Options{LabelProperty: "name"})
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Andalucía", loaded[0].Label)

	gobPath := filepath.Join(dir, "out.gob")
	require.NoError(t, SaveSnapshot(gobPath, regions))
	restored, err := LoadSnapshot(gobPath)
	require.NoError(t, err)
	require.Len(t, restored, 2)
	assert.Equal(t, "Islas Baleares", restored[1].Label)
	assert.True(t, Contains(restored[1].Geometry, models.Coordinate{Lat: 39.6, Lon: 3.0}))
}

func TestNewStore(t *testing.T) {
	_, err := NewStore(nil)
	assert.ErrorIs(t, err, ErrNoRegions)

	_, err = NewStore([]models.Region{{Label: "", Geometry: square(0, 0, 1, 1)}})
	assert.Error(t, err)

	_, err = NewStore([]models.Region{{Label: "Line", Geometry: orb.LineString{{0, 0}, {1, 1}}}})
	assert.ErrorIs(t, err, ErrNotPolygonal)

	store, err := NewStore([]models.Region{
		{Label: "A", Geometry: square(0, 0, 1, 1)},
		{Label: "B", Geometry: square(5, 5, 6, 6)},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, store.Candidates(models.Coordinate{Lat: 5.5, Lon: 5.5}))
	assert.True(t, store.Contains(1, models.Coordinate{Lat: 5.5, Lon: 5.5}))
	assert.False(t, store.Contains(0, models.Coordinate{Lat: 5.5, Lon: 5.5}))

	near, err := store.Intersecting(models.BoundingBox{
		BottomLeft: models.Coordinate{Lat: 4, Lon: 4},
		TopRight:   models.Coordinate{Lat: 7, Lon: 7},
	})
	require.NoError(t, err)
	require.Len(t, near, 1)
	assert.Equal(t, "B", near[0].Label)
}

func TestContainsHonoursHoles(t *testing.T) {
	donut := orb.Polygon{
		orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		orb.Ring{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	}
	assert.True(t, Contains(donut, models.Coordinate{Lat: 2, Lon: 2}))
	assert.False(t, Contains(donut, models.Coordinate{Lat: 5, Lon: 5}))
	assert.False(t, Contains(orb.LineString{{0, 0}, {1, 1}}, models.Coordinate{}))
}

func TestParseFilter(t *testing.T) {
	filter, err := ParseFilter([]string{"admin=Spain", " iso_a2 = ES "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"admin": "Spain", "iso_a2": "ES"}, filter)

	_, err = ParseFilter([]string{"admin"})
	assert.Error(t, err)
	_, err = ParseFilter([]string{"=Spain"})
	assert.Error(t, err)
}

func TestShapeGeometry(t *testing.T) {
	outer := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}, {X: 4, Y: 4}}
	island := []shp.Point{{X: 20, Y: 20}, {X: 20, Y: 21}, {X: 21, Y: 21}, {X: 21, Y: 20}, {X: 20, Y: 20}}

	single := &shp.Polygon{
		NumParts:  2,
		NumPoints: 10,
		Parts:     []int32{0, 5},
		Points:    append(append([]shp.Point{}, outer...), hole...),
	}
	geom := shapeGeometry(single)
	poly, ok := geom.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, poly, 2)
	assert.False(t, Contains(geom, models.Coordinate{Lat: 5, Lon: 5}))
	assert.True(t, Contains(geom, models.Coordinate{Lat: 1, Lon: 1}))

	multi := &shp.Polygon{
		NumParts:  2,
		NumPoints: 10,
		Parts:     []int32{0, 5},
		Points:    append(append([]shp.Point{}, outer...), island...),
	}
	geom = shapeGeometry(multi)
	mp, ok := geom.(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, mp, 2)
	assert.True(t, Contains(geom, models.Coordinate{Lat: 20.5, Lon: 20.5}))
}

func TestLoadShapefile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admin.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("name", 40),
		shp.StringField("admin", 40),
	}))

	rows := []struct {
		name, admin string
		points      []shp.Point
	}{
		{"Galicia", "Spain", []shp.Point{{X: -9, Y: 42}, {X: -9, Y: 43.8}, {X: -6.7, Y: 43.8}, {X: -6.7, Y: 42}, {X: -9, Y: 42}}},
		{"Norte", "Portugal", []shp.Point{{X: -8.9, Y: 40.8}, {X: -8.9, Y: 41.9}, {X: -6.2, Y: 41.9}, {X: -6.2, Y: 40.8}, {X: -8.9, Y: 40.8}}},
	}
	for _, row := range rows {
		polygon := shp.Polygon(*shp.NewPolyLine([][]shp.Point{row.points}))
		n := w.Write(&polygon)
		require.NoError(t, w.WriteAttribute(int(n), 0, row.name))
		require.NoError(t, w.WriteAttribute(int(n), 1, row.admin))
	}
	w.Close()
	// go-shp's writer names the attribute table "<base>dbf", the reader
	// expects "<base>.dbf"
	require.NoError(t, os.Rename(filepath.Join(dir, "admindbf"), filepath.Join(dir, "admin.dbf")))

	regions, err := LoadShapefile(path, Options{LabelProperty: "name", Filter: map[string]string{"admin": "Spain"}})
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "Galicia", regions[0].Label)
	assert.True(t, Contains(regions[0].Geometry, models.Coordinate{Lat: 42.9, Lon: -8.0}))
	assert.False(t, Contains(regions[0].Geometry, models.Coordinate{Lat: 41.1, Lon: -8.6}))

	all, err := LoadShapefile(path, Options{LabelProperty: "NAME"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Norte", all[1].Label)

	_, err = LoadShapefile(path, Options{LabelProperty: "missing"})
	assert.Error(t, err)
}

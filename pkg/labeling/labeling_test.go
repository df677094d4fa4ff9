package labeling

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/kass/go-geo-label/pkg/boundary"
	"github.com/kass/go-geo-label/pkg/geocode"
	"github.com/kass/go-geo-label/pkg/models"
	"github.com/kass/go-geo-label/pkg/resolver"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Matcher = (*geocode.CountryFilter)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func square(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

func northSouthResolver(t *testing.T) resolver.Resolver {
	t.Helper()
	store, err := boundary.NewStore([]models.Region{
		{Label: "North", Geometry: square(0, 10, 10, 20)},
		{Label: "South", Geometry: square(0, 0, 10, 10)},
	})
	require.NoError(t, err)
	return resolver.NewPolygonResolver(store, discardLogger())
}

func writeImages(t *testing.T, dir string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, os.WriteFile(filepath.Join(dir, id+".png"), []byte("image "+id), 0o644))
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestDirLookup(t *testing.T) {
	assert.Equal(t, filepath.Join("photos", "7.png"), DirLookup{Dir: "photos"}.Path(7))
	assert.Equal(t, filepath.Join("photos", "7.jpg"), DirLookup{Dir: "photos", Ext: ".jpg"}.Path(7))
}

func TestLabelAllRoundTrip(t *testing.T) {
	inDir, outDir := t.TempDir(), filepath.Join(t.TempDir(), "out")

	coords := []models.Coordinate{
		{Lat: 15, Lon: 5},  // 1 North
		{Lat: 12, Lon: 2},  // 2 North, image missing
		{Lat: 18, Lon: 9},  // 3 North
		{Lat: 5, Lon: 5},   // 4 South
		{Lat: 3, Lon: 1},   // 5 South, image missing
		{Lat: 8, Lon: 7},   // 6 South
		{Lat: 25, Lon: 5},  // 7 outside
		{Lat: 5, Lon: 15},  // 8 outside
		{Lat: -5, Lon: 5},  // 9 outside
		{Lat: 15, Lon: -1}, // 10 outside
	}
	writeImages(t, inDir, "1", "3", "4", "6", "7", "8", "9", "10")

	p := NewPipeline(DirLookup{Dir: inDir}, outDir, discardLogger())
	result, err := p.LabelAll(context.Background(), coords, northSouthResolver(t))
	require.NoError(t, err)

	assert.Equal(t, models.LabelMapping{"1": "North", "3": "North", "4": "South", "6": "South"}, result.Mapping)
	assert.Equal(t, Stats{Total: 10, Resolved: 6, Copied: 4, Missing: 2}, result.Stats)
	assert.Len(t, result.Copied, 4)
	assert.Equal(t, []string{"1.png", "3.png", "4.png", "6.png"}, listDir(t, outDir))

	for _, id := range result.Mapping.Keys() {
		data, err := os.ReadFile(filepath.Join(outDir, id+".png"))
		require.NoError(t, err)
		assert.Equal(t, "image "+id, string(data))
	}
}

func TestLabelAllNoImages(t *testing.T) {
	p := NewPipeline(DirLookup{Dir: t.TempDir()}, t.TempDir(), discardLogger())
	result, err := p.LabelAll(context.Background(), []models.Coordinate{{Lat: 15, Lon: 5}}, northSouthResolver(t))
	require.NoError(t, err)
	assert.Empty(t, result.Mapping)
	assert.Empty(t, result.Copied)
	assert.Equal(t, 1, result.Stats.Missing)
}

func TestLabelAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(DirLookup{Dir: t.TempDir()}, t.TempDir(), discardLogger())
	_, err := p.LabelAll(ctx, []models.Coordinate{{Lat: 15, Lon: 5}}, northSouthResolver(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLabelAllRefusesToOverwriteSource(t *testing.T) {
	dir := t.TempDir()
	writeImages(t, dir, "1")

	p := NewPipeline(DirLookup{Dir: dir}, dir, discardLogger())
	_, err := p.LabelAll(context.Background(), []models.Coordinate{{Lat: 15, Lon: 5}}, northSouthResolver(t))
	assert.ErrorIs(t, err, ErrSameFile)

	data, err := os.ReadFile(filepath.Join(dir, "1.png"))
	require.NoError(t, err)
	assert.Equal(t, "image 1", string(data))

	// Same directory reached through a symlink
	link := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.Symlink(dir, link))
	p = NewPipeline(DirLookup{Dir: dir}, link, discardLogger())
	_, err = p.FilterByCountry(context.Background(), []models.Coordinate{{Lat: 15, Lon: 5}},
		fakeMatcher{accept: map[models.Coordinate]bool{{Lat: 15, Lon: 5}: true}})
	assert.ErrorIs(t, err, ErrSameFile)
	data, err = os.ReadFile(filepath.Join(dir, "1.png"))
	require.NoError(t, err)
	assert.Equal(t, "image 1", string(data))
}

type fakeMatcher struct {
	accept map[models.Coordinate]bool
	err    error
}

func (f fakeMatcher) Matches(_ context.Context, c models.Coordinate) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.accept[c], nil
}

func TestFilterByCountry(t *testing.T) {
	inDir, outDir := t.TempDir(), t.TempDir()
	coords := []models.Coordinate{{Lat: 40.4, Lon: -3.7}, {Lat: 48.8, Lon: 2.3}, {Lat: 41.4, Lon: 2.2}}
	writeImages(t, inDir, "1", "2")

	m := fakeMatcher{accept: map[models.Coordinate]bool{coords[0]: true, coords[2]: true}}
	p := NewPipeline(DirLookup{Dir: inDir}, outDir, discardLogger())
	result, err := p.FilterByCountry(context.Background(), coords, m)
	require.NoError(t, err)

	assert.Nil(t, result.Mapping)
	assert.Equal(t, Stats{Total: 3, Resolved: 2, Copied: 1, Missing: 1}, result.Stats)
	assert.Equal(t, []string{"1.png"}, listDir(t, outDir))
}

func TestFilterByCountryError(t *testing.T) {
	boom := errors.New("connection refused")
	p := NewPipeline(DirLookup{Dir: t.TempDir()}, t.TempDir(), discardLogger())
	_, err := p.FilterByCountry(context.Background(), []models.Coordinate{{Lat: 1, Lon: 1}}, fakeMatcher{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestEncodeMapping(t *testing.T) {
	data, err := EncodeMapping(models.LabelMapping{"10": "País Vasco", "2": "Andalucía", "1": "A&B"})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"1\": \"A&B\",\n    \"2\": \"Andalucía\",\n    \"10\": \"País Vasco\"\n}\n", string(data))

	empty, err := EncodeMapping(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(empty))
}

func TestWriteReadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	m := models.LabelMapping{"1": "Castilla y León", "3": "Cataluña"}

	require.NoError(t, WriteMapping(path, m))
	got, err := ReadMapping(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	require.NoError(t, os.WriteFile(path, []byte("[1,2]"), 0o644))
	_, err = ReadMapping(path)
	assert.Error(t, err)
}

package coords

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/imagemeta"
	"github.com/kass/go-geo-label/pkg/models"
)

// ErrNoGPS is returned when a photo carries no usable GPS position
var ErrNoGPS = errors.New("no GPS position in image metadata")

var gpsTags = map[string]bool{
	"GPSLatitude":     true,
	"GPSLatitudeRef":  true,
	"GPSLongitude":    true,
	"GPSLongitudeRef": true,
}

// FromEXIF reads the GPS position of a JPEG, PNG, WebP or TIFF photo
func FromEXIF(path string) (models.Coordinate, error) {
	format, ok := imageFormat(path)
	if !ok {
		return models.Coordinate{}, fmt.Errorf("%s: unsupported image format", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return models.Coordinate{}, err
	}
	defer f.Close()

	values := make(map[string]any, len(gpsTags))
	err = imagemeta.Decode(imagemeta.Options{
		R:           f,
		ImageFormat: format,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return gpsTags[ti.Tag]
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			values[ti.Tag] = ti.Value
			return nil
		},
	})
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%s: read metadata: %w", path, err)
	}

	lat, okLat := degrees(values["GPSLatitude"])
	lon, okLon := degrees(values["GPSLongitude"])
	if !okLat || !okLon {
		return models.Coordinate{}, fmt.Errorf("%s: %w", path, ErrNoGPS)
	}
	if ref, _ := values["GPSLatitudeRef"].(string); strings.EqualFold(strings.TrimSpace(ref), "S") {
		lat = -abs(lat)
	}
	if ref, _ := values["GPSLongitudeRef"].(string); strings.EqualFold(strings.TrimSpace(ref), "W") {
		lon = -abs(lon)
	}

	c := models.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return models.Coordinate{}, fmt.Errorf("%s: GPS position %s out of range", path, c)
	}
	return c, nil
}

func imageFormat(path string) (imagemeta.ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return imagemeta.JPEG, true
	case ".png":
		return imagemeta.PNG, true
	case ".webp":
		return imagemeta.WebP, true
	case ".tif", ".tiff":
		return imagemeta.TIFF, true
	}
	return 0, false
}

// degrees accepts decimal degrees or a degrees/minutes/seconds triple
func degrees(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case *big.Rat:
		f, _ := val.Float64()
		return f, true
	case []float64:
		return dms(val)
	case []*big.Rat:
		parts := make([]float64, 0, len(val))
		for _, r := range val {
			f, _ := r.Float64()
			parts = append(parts, f)
		}
		return dms(parts)
	case []any:
		parts := make([]float64, 0, len(val))
		for _, item := range val {
			f, ok := degrees(item)
			if !ok {
				return 0, false
			}
			parts = append(parts, f)
		}
		return dms(parts)
	}
	return 0, false
}

func dms(parts []float64) (float64, bool) {
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}
	out := 0.0
	scale := 1.0
	for _, p := range parts {
		out += p / scale
		scale *= 60
	}
	return out, true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// FromEXIFDir reads the GPS position of photos named {id}.{ext} in dir.
// Identifiers must run from 1 without gaps since the row number of the
// coordinate file is the image identifier.
func FromEXIFDir(dir, ext string) ([]models.Coordinate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	suffix := "." + strings.TrimPrefix(strings.ToLower(ext), ".")
	present := make(map[int]string)
	maxID := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), suffix) {
			continue
		}
		var id int
		if _, err := fmt.Sscanf(name[:len(name)-len(suffix)], "%d", &id); err != nil || id < 1 {
			continue
		}
		if fmt.Sprintf("%d%s", id, suffix) != strings.ToLower(name) {
			continue
		}
		present[id] = filepath.Join(dir, name)
		if id > maxID {
			maxID = id
		}
	}
	if maxID == 0 {
		return nil, fmt.Errorf("no {id}%s photos in %s", suffix, dir)
	}

	coords := make([]models.Coordinate, 0, maxID)
	for id := 1; id <= maxID; id++ {
		path, ok := present[id]
		if !ok {
			return nil, fmt.Errorf("photo %d%s is missing from %s", id, suffix, dir)
		}
		c, err := FromEXIF(path)
		if err != nil {
			return nil, fmt.Errorf("photo %d: %w", id, err)
		}
		coords = append(coords, c)
	}
	return coords, nil
}

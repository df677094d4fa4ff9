package boundary

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/kass/go-geo-label/pkg/models"
	"github.com/paulmach/orb/encoding/wkb"
)

// snapshotRegion is the serializable form of a region
type snapshotRegion struct {
	Label string
	WKB   []byte
}

// snapshotData is the serializable form of a boundary set
type snapshotData struct {
	Regions []snapshotRegion
	Count   int
}

// SaveSnapshot writes regions to a binary file for fast reloads
func SaveSnapshot(filename string, regions []models.Region) error {
	data := snapshotData{
		Regions: make([]snapshotRegion, 0, len(regions)),
		Count:   len(regions),
	}
	for _, r := range regions {
		raw, err := wkb.Marshal(r.Geometry)
		if err != nil {
			return fmt.Errorf("failed to encode region %q: %w", r.Label, err)
		}
		data.Regions = append(data.Regions, snapshotRegion{Label: r.Label, WKB: raw})
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return file.Close()
}

// LoadSnapshot reads regions written by SaveSnapshot
func LoadSnapshot(filename string) ([]models.Region, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data snapshotData
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	if data.Count != len(data.Regions) {
		return nil, fmt.Errorf("corrupt snapshot: header says %d regions, found %d", data.Count, len(data.Regions))
	}

	regions := make([]models.Region, 0, len(data.Regions))
	for _, r := range data.Regions {
		geom, err := wkb.Unmarshal(r.WKB)
		if err != nil {
			return nil, fmt.Errorf("failed to decode region %q: %w", r.Label, err)
		}
		regions = append(regions, models.Region{Label: r.Label, Geometry: geom})
	}

	return regions, nil
}

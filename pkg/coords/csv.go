// Package coords reads and writes the per-image coordinate file.
package coords

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kass/go-geo-label/pkg/models"
)

// ErrEmpty is returned for a coordinate file without data rows
var ErrEmpty = errors.New("coordinate file has no rows")

// ReadFile reads a lat,lon CSV. The n-th data row (1-based) belongs to image n.
func ReadFile(path string) ([]models.Coordinate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coordinate file: %w", err)
	}
	defer f.Close()

	coords, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return coords, nil
}

// Read parses lat,lon rows. A first row that is not numeric is treated as a
// header. Blank lines are ignored.
func Read(r io.Reader) ([]models.Coordinate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var coords []models.Coordinate
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		c, err := parseRecord(record)
		if err != nil {
			if row == 1 && isHeader(record) {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		coords = append(coords, c)
	}

	if len(coords) == 0 {
		return nil, ErrEmpty
	}
	return coords, nil
}

// WriteFile writes coordinates as headerless lat,lon rows
func WriteFile(path string, coords []models.Coordinate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create coordinate file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, c := range coords {
		record := []string{
			strconv.FormatFloat(c.Lat, 'f', -1, 64),
			strconv.FormatFloat(c.Lon, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write coordinates: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write coordinates: %w", err)
	}
	return f.Close()
}

func parseRecord(record []string) (models.Coordinate, error) {
	if len(record) < 2 {
		return models.Coordinate{}, fmt.Errorf("expected latitude,longitude, got %d field(s)", len(record))
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("invalid latitude %q", record[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("invalid longitude %q", record[1])
	}

	c := models.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return models.Coordinate{}, fmt.Errorf("coordinate %s out of range", c)
	}
	return c, nil
}

func isHeader(record []string) bool {
	for _, field := range record {
		if _, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil {
			return false
		}
	}
	return true
}

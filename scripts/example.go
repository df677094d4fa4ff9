package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/kass/go-geo-label/pkg/boundary"
	"github.com/kass/go-geo-label/pkg/models"
	"github.com/kass/go-geo-label/pkg/resolver"
	"github.com/paulmach/orb"
)

func rect(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}}
}

func main() {
	// Coarse rectangles standing in for real comunidad boundaries
	regions := []models.Region{
		{Label: "Madrid", Geometry: rect(-4.58, 39.88, -3.05, 41.17)},
		{Label: "Cataluña", Geometry: rect(0.16, 40.52, 3.33, 42.86)},
		{Label: "Andalucía", Geometry: rect(-7.52, 36.0, -1.63, 38.73)},
		{Label: "País Vasco", Geometry: rect(-3.45, 42.47, -1.73, 43.45)},
		{Label: "Islas Baleares", Geometry: orb.MultiPolygon{
			rect(2.3, 39.26, 3.48, 39.97),
			rect(3.79, 39.8, 4.33, 40.09),
		}},
	}

	store, err := boundary.NewStore(regions)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Indexed %d regions\n\n", store.Len())

	// Example 1: Resolve city coordinates
	fmt.Println("=== Resolving cities ===")
	cities := map[string]models.Coordinate{
		"Madrid":    {Lat: 40.4168, Lon: -3.7038},
		"Barcelona": {Lat: 41.3874, Lon: 2.1686},
		"Sevilla":   {Lat: 37.3891, Lon: -5.9845},
		"Bilbao":    {Lat: 43.2630, Lon: -2.9350},
		"Palma":     {Lat: 39.5696, Lon: 2.6502},
		"Lisboa":    {Lat: 38.7223, Lon: -9.1393},
	}
	r := resolver.NewPolygonResolver(store, nil)
	for _, name := range []string{"Madrid", "Barcelona", "Sevilla", "Bilbao", "Palma", "Lisboa"} {
		c := cities[name]
		if region, ok := r.Resolve(c); ok {
			fmt.Printf("  - %s %s: %s\n", name, c, region.Label)
		} else {
			fmt.Printf("  - %s %s: outside every region\n", name, c)
		}
	}

	// Example 2: Regions near the Mediterranean coast (bounding box)
	fmt.Println("\n=== Regions intersecting the east coast ===")
	coast := models.BoundingBox{
		BottomLeft: models.Coordinate{Lat: 38.5, Lon: 0.0},
		TopRight:   models.Coordinate{Lat: 42.0, Lon: 5.0},
	}
	near, err := store.Intersecting(coast)
	if err != nil {
		log.Fatal(err)
	}
	for _, region := range near {
		fmt.Printf("  - %s\n", region.Label)
	}

	// Save the regions
	fmt.Println("\n=== Saving Snapshot ===")
	path := filepath.Join(os.TempDir(), "comunidades.gob")
	if err := boundary.SaveSnapshot(path, store.Regions()); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Snapshot saved to %s\n", path)

	// Load the regions
	fmt.Println("\n=== Loading Snapshot ===")
	restored, err := boundary.LoadSnapshot(path)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Loaded snapshot with %d regions\n", len(restored))
}

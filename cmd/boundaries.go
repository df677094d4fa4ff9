package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kass/go-geo-label/pkg/boundary"
	"github.com/kass/go-geo-label/pkg/postgis"
	"github.com/spf13/cobra"
)

var boundaryOut string

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Convert a boundary dataset to GeoJSON, a gob snapshot or a PostGIS table",
	Long: `Load region polygons from a GeoJSON, shapefile, snapshot or PostGIS source,
apply the attribute filter and write them to the output.`,
	RunE: runBoundaries,
}

func init() {
	boundariesCmd.Flags().StringVarP(&boundarySrc, "source", "s", "", "Boundary dataset to read")
	boundariesCmd.Flags().StringVarP(&boundaryOut, "output", "o", "", "Output .geojson, .gob or postgres:// DSN")
	boundariesCmd.Flags().StringVar(&labelProperty, "label-property", "", "Feature attribute holding the region label")
	boundariesCmd.Flags().StringSliceVar(&filters, "filter", nil, "Keep features whose attribute matches, e.g. admin=Spain")
	_ = boundariesCmd.MarkFlagRequired("output")
}

func runBoundaries(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts, err := boundaryOptions()
	if err != nil {
		return err
	}
	source := pick(boundarySrc, cfg.Boundary.Source)
	regions, err := boundary.LoadRegions(ctx, source, opts)
	if err != nil {
		return err
	}

	switch {
	case strings.HasPrefix(boundaryOut, "postgres://"), strings.HasPrefix(boundaryOut, "postgresql://"):
		db, err := postgis.Open(ctx, boundaryOut)
		if err != nil {
			return err
		}
		defer db.Close()

		table := postgis.Table{Name: cfg.Boundary.Table, LabelColumn: opts.LabelProperty}
		if err := db.InitSchema(ctx, table); err != nil {
			return err
		}
		if err := db.InsertRegions(ctx, table, regions); err != nil {
			return err
		}
		rows, err := db.Count(ctx, table)
		if err != nil {
			return err
		}
		logger.Info("postgis table updated", "table", cfg.Boundary.Table, "rows", rows)
	case strings.EqualFold(filepath.Ext(boundaryOut), ".gob"):
		if err := boundary.SaveSnapshot(boundaryOut, regions); err != nil {
			return err
		}
	default:
		if err := boundary.WriteGeoJSON(boundaryOut, regions, opts.LabelProperty); err != nil {
			return err
		}
	}

	logger.Info("boundaries converted", "source", source, "output", boundaryOut, "regions", len(regions))
	fmt.Println(successStyle.Render(fmt.Sprintf("Wrote %d regions to %s", len(regions), boundaryOut)))
	return nil
}

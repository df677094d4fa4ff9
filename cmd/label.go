package main

import (
	"fmt"

	"github.com/kass/go-geo-label/pkg/boundary"
	"github.com/kass/go-geo-label/pkg/coords"
	"github.com/kass/go-geo-label/pkg/geocode"
	"github.com/kass/go-geo-label/pkg/labeling"
	"github.com/kass/go-geo-label/pkg/resolver"
	"github.com/spf13/cobra"
)

var (
	coordsFile    string
	inputDir      string
	outputDir     string
	imageExt      string
	mappingFile   string
	boundarySrc   string
	labelProperty string
	filters       []string
	country       string
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Label photos with the region that contains them",
	Long: `Resolve every coordinate against the boundary polygons, copy the photos
that fall inside a region and write the id to region mapping.`,
	RunE: runLabel,
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Keep photos taken inside a country",
	Long:  `Reverse geocode every coordinate and copy the photos located in the configured country.`,
	RunE:  runFilter,
}

func init() {
	for _, c := range []*cobra.Command{labelCmd, filterCmd} {
		c.Flags().StringVar(&coordsFile, "coords", "", "Coordinate CSV, one lat,lon row per photo")
		c.Flags().StringVarP(&inputDir, "input", "i", "", "Directory holding {id}.{ext} photos")
		c.Flags().StringVarP(&outputDir, "output", "o", "", "Directory the selected photos are copied to")
		c.Flags().StringVar(&imageExt, "ext", "", "Photo file extension")
	}

	labelCmd.Flags().StringVarP(&boundarySrc, "boundaries", "b", "", "Boundary dataset (.geojson, .shp, .gob or postgres:// DSN)")
	labelCmd.Flags().StringVar(&labelProperty, "label-property", "", "Feature attribute holding the region label")
	labelCmd.Flags().StringSliceVar(&filters, "filter", nil, "Keep features whose attribute matches, e.g. admin=Spain")
	labelCmd.Flags().StringVarP(&mappingFile, "mapping", "m", "", "Output mapping JSON")

	filterCmd.Flags().StringVar(&country, "country", "", "Country name expected in the geocoded address")
}

func boundaryOptions() (boundary.Options, error) {
	pairs := filters
	if len(pairs) == 0 {
		pairs = cfg.Boundary.Filter
	}
	filter, err := boundary.ParseFilter(pairs)
	if err != nil {
		return boundary.Options{}, err
	}
	return boundary.Options{
		LabelProperty: pick(labelProperty, cfg.Boundary.LabelProperty),
		Filter:        filter,
		Table:         cfg.Boundary.Table,
	}, nil
}

func newPipeline() *labeling.Pipeline {
	lookup := labeling.DirLookup{
		Dir: pick(inputDir, cfg.Labeling.InputDir),
		Ext: pick(imageExt, cfg.Labeling.Ext),
	}
	return labeling.NewPipeline(lookup, pick(outputDir, cfg.Labeling.OutputDir), logger)
}

func runLabel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	points, err := coords.ReadFile(pick(coordsFile, cfg.Labeling.Coords))
	if err != nil {
		return err
	}

	opts, err := boundaryOptions()
	if err != nil {
		return err
	}
	source := pick(boundarySrc, cfg.Boundary.Source)
	store, err := boundary.Load(ctx, source, opts)
	if err != nil {
		return err
	}
	logger.Info("boundaries loaded", "source", source, "regions", store.Len())
	logger.Debug("region labels", "labels", store.Labels())

	result, err := newPipeline().LabelAll(ctx, points, resolver.NewPolygonResolver(store, logger))
	if err != nil {
		return err
	}

	out := pick(mappingFile, cfg.Labeling.Mapping)
	if err := labeling.WriteMapping(out, result.Mapping); err != nil {
		return err
	}

	fmt.Println(renderStats("Labeling Complete!", result.Stats, "Inside a region"))
	fmt.Println(dimStyle.Render("Mapping written to " + out))
	return nil
}

func runFilter(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	points, err := coords.ReadFile(pick(coordsFile, cfg.Labeling.Coords))
	if err != nil {
		return err
	}

	client := geocode.NewClient(geocode.Config{
		BaseURL:     cfg.Geocode.BaseURL,
		UserAgent:   cfg.Geocode.UserAgent,
		Language:    cfg.Geocode.Language,
		Timeout:     cfg.Geocode.Timeout,
		MaxAttempts: cfg.Geocode.MaxAttempts,
		Backoff:     cfg.Geocode.Backoff,
	}, nil, logger)
	filter := geocode.NewCountryFilter(client, pick(country, cfg.Geocode.Country))

	result, err := newPipeline().FilterByCountry(ctx, points, filter)
	if err != nil {
		return err
	}

	fmt.Println(renderStats("Filtering Complete!", result.Stats, "Inside "+pick(country, cfg.Geocode.Country)))
	return nil
}

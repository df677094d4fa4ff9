package main

import (
	"fmt"

	"github.com/kass/go-geo-label/pkg/coords"
	"github.com/spf13/cobra"
)

var coordsCmd = &cobra.Command{
	Use:   "coords",
	Short: "Build the coordinate CSV from photo GPS metadata",
	Long:  `Read the GPS position of photos 1..N in the input directory and write one lat,lon row per photo.`,
	RunE:  runCoords,
}

func init() {
	coordsCmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory holding {id}.{ext} photos")
	coordsCmd.Flags().StringVar(&imageExt, "ext", "", "Photo file extension")
	coordsCmd.Flags().StringVarP(&coordsFile, "output", "o", "", "Coordinate CSV to write")
}

func runCoords(cmd *cobra.Command, args []string) error {
	dir := pick(inputDir, cfg.Labeling.InputDir)
	points, err := coords.FromEXIFDir(dir, pick(imageExt, cfg.Labeling.Ext))
	if err != nil {
		return err
	}

	out := pick(coordsFile, cfg.Labeling.Coords)
	if err := coords.WriteFile(out, points); err != nil {
		return err
	}
	logger.Info("coordinates extracted", "photos", len(points), "output", out)
	fmt.Println(successStyle.Render(fmt.Sprintf("Wrote %d coordinates to %s", len(points), out)))
	return nil
}

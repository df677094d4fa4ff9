package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kass/go-geo-label/pkg/config"
	"github.com/kass/go-geo-label/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "geolabel",
	Short: "Label geotagged photos with their region and score image classifiers",
	Long: `Filters geotagged photos to a country, labels each one with the region
whose boundary contains it, and measures how well an image-text model
recovers that region from pixels alone.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./geolabel.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(filterCmd, labelCmd, evaluateCmd, rankCmd, coordsCmd, boundariesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger = logging.Setup(os.Stderr, level, cfg.Logging.Format)
	return nil
}

// pick returns flag when set, otherwise the configured value
func pick(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}

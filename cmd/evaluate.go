package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kass/go-geo-label/pkg/evaluation"
	"github.com/kass/go-geo-label/pkg/inference"
	"github.com/kass/go-geo-label/pkg/labeling"
	"github.com/kass/go-geo-label/pkg/models"
	"github.com/spf13/cobra"
)

var (
	batchSize int
	topN      int
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Predict the region of every labeled photo and report accuracy",
	Long: `Run the labeled photos through the image-text model in batches, pick the
most likely region for each one and compare it with the mapping.`,
	RunE: runEvaluate,
}

var rankCmd = &cobra.Command{
	Use:   "rank <image>",
	Short: "Show the probability of every region for one photo",
	Args:  cobra.ExactArgs(1),
	RunE:  runRank,
}

func init() {
	evaluateCmd.Flags().StringVarP(&mappingFile, "mapping", "m", "", "Ground-truth mapping JSON")
	evaluateCmd.Flags().StringVarP(&inputDir, "input", "i", "", "Directory holding the labeled photos (default labeling.output_dir)")
	evaluateCmd.Flags().StringVar(&imageExt, "ext", "", "Photo file extension")
	evaluateCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Images per classifier call")

	rankCmd.Flags().IntVarP(&topN, "top", "n", 5, "Number of regions to show (0 for all)")
}

func vocabulary() []string {
	if len(cfg.Inference.Vocabulary) > 0 {
		return cfg.Inference.Vocabulary
	}
	return models.Comunidades
}

// newClassifier builds the configured backend. The returned func releases it.
func newClassifier(ctx context.Context) (inference.Classifier, func(), error) {
	switch cfg.Inference.Backend {
	case "onnx":
		clf, err := inference.NewONNXClassifier(ctx, cfg.Inference.Checkpoint, cfg.Inference.ModelConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load model: %w", err)
		}
		return clf, func() { clf.Close() }, nil
	default:
		clf := inference.NewHTTPClassifier(inference.HTTPConfig{
			Endpoint:  cfg.Inference.Endpoint,
			ImageSide: cfg.Inference.ImageSide,
			Timeout:   cfg.Inference.Timeout,
		}, nil)
		return clf, func() {}, nil
	}
}

func newBatcher(ctx context.Context) (*inference.Batcher, func(), error) {
	clf, release, err := newClassifier(ctx)
	if err != nil {
		return nil, nil, err
	}
	size := batchSize
	if size == 0 {
		size = cfg.Inference.BatchSize
	}
	return inference.NewBatcher(clf, size, vocabulary(), logger), release, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	truth, err := labeling.ReadMapping(pick(mappingFile, cfg.Labeling.Mapping))
	if err != nil {
		return err
	}
	if len(truth) == 0 {
		return evaluation.ErrEmptyGroundTruth
	}

	dir := pick(inputDir, cfg.Labeling.OutputDir)
	ext := strings.TrimPrefix(pick(imageExt, cfg.Labeling.Ext), ".")
	ids := truth.Keys()
	paths := make([]string, len(ids))
	for i, id := range ids {
		paths[i] = filepath.Join(dir, id+"."+ext)
	}

	b, release, err := newBatcher(ctx)
	if err != nil {
		return err
	}
	defer release()
	b.Progress = progressPrinter(os.Stderr, "Classifying")

	labels, err := b.Predict(ctx, paths)
	if err != nil {
		return err
	}

	report, err := evaluation.NewReport(evaluation.Zip(ids, labels), truth)
	if err != nil {
		return err
	}
	fmt.Println(renderReport(report))
	return nil
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	b, release, err := newBatcher(ctx)
	if err != nil {
		return err
	}
	defer release()

	scores, err := b.Rank(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(renderRanking(args[0], scores, topN))
	return nil
}

// Package inference predicts region labels from image pixels with a
// pretrained image-text model.
package inference

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sort"

	"github.com/kass/go-geo-label/pkg/models"
)

// DefaultBatchSize is the number of images sent to the classifier at once
const DefaultBatchSize = 32

var (
	// ErrBatchSize is returned when the batch size is not positive
	ErrBatchSize = errors.New("batch size must be positive")
	// ErrEmptyVocabulary is returned when no labels are configured
	ErrEmptyVocabulary = errors.New("vocabulary is empty")
)

// Classifier scores images against text labels. The result has one row per
// image and one column per label.
type Classifier interface {
	Logits(ctx context.Context, images []image.Image, labels []string) ([][]float64, error)
}

// ProgressFunc is called after each batch with the number of images done
type ProgressFunc func(done, total int)

// Batcher runs images through a classifier in fixed-size batches
type Batcher struct {
	Classifier Classifier
	BatchSize  int
	Vocabulary []string
	Progress   ProgressFunc
	Logger     *slog.Logger
}

// NewBatcher creates a batcher over vocabulary. A zero batchSize selects
// DefaultBatchSize.
func NewBatcher(c Classifier, batchSize int, vocabulary []string, logger *slog.Logger) *Batcher {
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}
	if len(vocabulary) == 0 {
		vocabulary = models.Comunidades
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Batcher{
		Classifier: c,
		BatchSize:  batchSize,
		Vocabulary: vocabulary,
		Logger:     logger,
	}
}

// Predict returns one label per path, in input order
func (b *Batcher) Predict(ctx context.Context, paths []string) ([]string, error) {
	if b.BatchSize <= 0 {
		return nil, ErrBatchSize
	}
	if len(b.Vocabulary) == 0 {
		return nil, ErrEmptyVocabulary
	}

	labels := make([]string, 0, len(paths))
	for start := 0; start < len(paths); start += b.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+b.BatchSize, len(paths))

		batch, err := b.predictBatch(ctx, paths[start:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start+1, end, err)
		}
		labels = append(labels, batch...)

		b.Logger.Debug("batch classified", "from", start+1, "to", end, "total", len(paths))
		if b.Progress != nil {
			b.Progress(end, len(paths))
		}
	}
	return labels, nil
}

// predictBatch decodes paths, classifies them and drops the decoded images
// before returning.
func (b *Batcher) predictBatch(ctx context.Context, paths []string) ([]string, error) {
	images := make([]image.Image, 0, len(paths))
	for _, p := range paths {
		img, err := LoadImage(p)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	logits, err := b.Classifier.Logits(ctx, images, b.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("classifier failed: %w", err)
	}
	if len(logits) != len(images) {
		return nil, fmt.Errorf("classifier returned %d rows for %d images", len(logits), len(images))
	}

	labels := make([]string, len(logits))
	for i, row := range logits {
		if len(row) != len(b.Vocabulary) {
			return nil, fmt.Errorf("classifier returned %d scores for %d labels", len(row), len(b.Vocabulary))
		}
		labels[i] = b.Vocabulary[Argmax(row)]
	}
	return labels, nil
}

// Rank returns the probability of every vocabulary label for one image,
// highest first.
func (b *Batcher) Rank(ctx context.Context, path string) ([]models.LabelScore, error) {
	if len(b.Vocabulary) == 0 {
		return nil, ErrEmptyVocabulary
	}
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}

	logits, err := b.Classifier.Logits(ctx, []image.Image{img}, b.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("classifier failed: %w", err)
	}
	if len(logits) != 1 || len(logits[0]) != len(b.Vocabulary) {
		return nil, fmt.Errorf("classifier returned unexpected shape for one image and %d labels", len(b.Vocabulary))
	}

	probs := Softmax(logits[0])
	scores := make([]models.LabelScore, len(probs))
	for i, p := range probs {
		scores[i] = models.LabelScore{Label: b.Vocabulary[i], Probability: p}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Probability > scores[j].Probability
	})
	return scores, nil
}

// Argmax returns the index of the largest value. Ties keep the first index.
func Argmax(row []float64) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}

// Softmax converts logits to probabilities
func Softmax(row []float64) []float64 {
	out := make([]float64, len(row))
	if len(row) == 0 {
		return out
	}
	maxLogit := row[Argmax(row)]
	var sum float64
	for i, v := range row {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

//go:build !gocv
// +build !gocv

package inference

import (
	"context"
	"errors"
	"image"
)

// ErrNoGoCV is returned when the binary was built without the gocv tag
var ErrNoGoCV = errors.New("gocv build tag is not enabled")

// ONNXClassifier is unavailable without OpenCV
type ONNXClassifier struct{}

// NewONNXClassifier returns ErrNoGoCV
func NewONNXClassifier(_ context.Context, _, _ string) (*ONNXClassifier, error) {
	return nil, ErrNoGoCV
}

// Logits returns ErrNoGoCV
func (c *ONNXClassifier) Logits(_ context.Context, _ []image.Image, _ []string) ([][]float64, error) {
	return nil, ErrNoGoCV
}

// Close is a no-op
func (c *ONNXClassifier) Close() error {
	return nil
}

var _ Classifier = (*ONNXClassifier)(nil)

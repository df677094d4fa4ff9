//go:build gocv
// +build gocv

package inference

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// ONNXClassifier runs an ONNX image encoder through the OpenCV DNN module
// and compares its embeddings with precomputed label embeddings.
type ONNXClassifier struct {
	net   gocv.Net
	model *ModelConfig
}

// NewONNXClassifier loads the encoder at modelPath and its companion config
func NewONNXClassifier(ctx context.Context, modelPath, configSrc string) (*ONNXClassifier, error) {
	model, err := LoadModelConfig(ctx, configSrc)
	if err != nil {
		return nil, err
	}
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load ONNX model %s", modelPath)
	}
	return &ONNXClassifier{net: net, model: model}, nil
}

// Logits implements Classifier
func (c *ONNXClassifier) Logits(ctx context.Context, images []image.Image, labels []string) ([][]float64, error) {
	textEmbeds := make([][]float32, len(labels))
	for j, l := range labels {
		e, ok := c.model.embedding(l)
		if !ok {
			return nil, fmt.Errorf("label %q has no text embedding", l)
		}
		textEmbeds[j] = e
	}

	out := make([][]float64, 0, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embed, err := c.encode(img)
		if err != nil {
			return nil, err
		}
		out = append(out, similarityLogits(embed, textEmbeds, c.model.LogitScale))
	}
	return out, nil
}

func (c *ONNXClassifier) encode(img image.Image) ([]float32, error) {
	side := c.model.ImageSize
	tensor := Tensor(img, side, c.model.Mean, c.model.Std)
	raw := make([]byte, 4*len(tensor))
	for i, v := range tensor {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}

	blob, err := gocv.NewMatWithSizesFromBytes([]int{1, 3, side, side}, gocv.MatTypeCV32F, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to build input blob: %w", err)
	}
	defer blob.Close()

	c.net.SetInput(blob, "")
	result := c.net.Forward("")
	defer result.Close()
	if result.Empty() {
		return nil, errors.New("encoder produced no output")
	}

	data, err := result.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read encoder output: %w", err)
	}
	embed := make([]float32, len(data))
	copy(embed, data)
	return embed, nil
}

// Close releases the network
func (c *ONNXClassifier) Close() error {
	return c.net.Close()
}

var _ Classifier = (*ONNXClassifier)(nil)

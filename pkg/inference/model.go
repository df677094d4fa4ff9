package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
)

// ModelConfig is the companion file of an ONNX image encoder. It holds the
// precomputed text embedding of every label and the preprocessing the
// encoder expects.
type ModelConfig struct {
	Labels     []string    `json:"labels"`
	TextEmbeds [][]float32 `json:"text_embeds"`
	LogitScale float64     `json:"logit_scale"`
	ImageSize  int         `json:"image_size"`
	Mean       [3]float32  `json:"mean"`
	Std        [3]float32  `json:"std"`
}

// Validate checks that the embeddings line up with the labels
func (m *ModelConfig) Validate() error {
	var errs []error
	if len(m.Labels) == 0 {
		errs = append(errs, errors.New("labels is empty"))
	}
	if len(m.TextEmbeds) != len(m.Labels) {
		errs = append(errs, fmt.Errorf("%d text embeddings for %d labels", len(m.TextEmbeds), len(m.Labels)))
	}
	for i, e := range m.TextEmbeds {
		if len(e) == 0 || len(e) != len(m.TextEmbeds[0]) {
			errs = append(errs, fmt.Errorf("text embedding %d has dimension %d", i, len(e)))
			break
		}
	}
	if m.ImageSize <= 0 {
		errs = append(errs, fmt.Errorf("image_size must be positive, got %d", m.ImageSize))
	}
	for c, s := range m.Std {
		if s == 0 {
			errs = append(errs, fmt.Errorf("std[%d] is zero", c))
		}
	}
	return errors.Join(errs...)
}

// embedding returns the text embedding of label
func (m *ModelConfig) embedding(label string) ([]float32, bool) {
	for i, l := range m.Labels {
		if l == label {
			return m.TextEmbeds[i], true
		}
	}
	return nil, false
}

// LoadModelConfig reads a companion file from a path or an http(s) URL
func LoadModelConfig(ctx context.Context, src string) (*ModelConfig, error) {
	rc, err := open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var cfg ModelConfig
	if err := json.NewDecoder(rc).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode model config %s: %w", src, err)
	}
	if cfg.LogitScale == 0 {
		cfg.LogitScale = 100
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model config %s: %w", src, err)
	}
	return &cfg, nil
}

func open(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", src, err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", src, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: status %d", src, resp.StatusCode)
	}
	return resp.Body, nil
}

// similarityLogits scores an image embedding against label embeddings as
// scale times the cosine similarity.
func similarityLogits(imageEmbed []float32, textEmbeds [][]float32, scale float64) []float64 {
	img := normalize(imageEmbed)
	out := make([]float64, len(textEmbeds))
	for j, t := range textEmbeds {
		txt := normalize(t)
		var dot float64
		for k := range img {
			if k < len(txt) {
				dot += img[k] * txt[k]
			}
		}
		out[j] = scale * dot
	}
	return out
}

func normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	var sum float64
	for i, x := range v {
		out[i] = float64(x)
		sum += out[i] * out[i]
	}
	if sum == 0 {
		return out
	}
	norm := 1 / math.Sqrt(sum)
	for i := range out {
		out[i] *= norm
	}
	return out
}

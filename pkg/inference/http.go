package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 60 * time.Second

// HTTPConfig configures an HTTPClassifier
type HTTPConfig struct {
	Endpoint  string
	ImageSide int
	Timeout   time.Duration
}

// HTTPClassifier scores images with a remote image-text model. Images are
// sent as JPEG data URLs and the response must carry logits_per_image.
type HTTPClassifier struct {
	cfg    HTTPConfig
	client *http.Client
}

type logitsRequest struct {
	Labels []string `json:"labels"`
	Images []string `json:"images"`
}

type logitsResponse struct {
	LogitsPerImage [][]float64 `json:"logits_per_image"`
	Error          string      `json:"error,omitempty"`
}

// NewHTTPClassifier creates a classifier posting to cfg.Endpoint
func NewHTTPClassifier(cfg HTTPConfig, client *http.Client) *HTTPClassifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPClassifier{cfg: cfg, client: client}
}

// Logits implements Classifier
func (c *HTTPClassifier) Logits(ctx context.Context, images []image.Image, labels []string) ([][]float64, error) {
	body := logitsRequest{Labels: labels, Images: make([]string, 0, len(images))}
	for i, img := range images {
		data, err := encodeJPEG(Fit(img, c.cfg.ImageSide))
		if err != nil {
			return nil, fmt.Errorf("failed to encode image %d: %w", i, err)
		}
		body.Images = append(body.Images, EncodeDataURL(data, "image/jpeg"))
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("model server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out logitsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("model server: %s", out.Error)
	}
	return out.LogitsPerImage, nil
}

// EncodeDataURL creates a data: URI from bytes and MIME type
func EncodeDataURL(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

var _ Classifier = (*HTTPClassifier)(nil)

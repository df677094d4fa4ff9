// Package geocode classifies coordinates by country through a
// Nominatim-compatible reverse geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kass/go-geo-label/pkg/models"
)

// ErrTimeout is returned when every attempt timed out
var ErrTimeout = errors.New("reverse geocoding timed out")

// Config holds the reverse geocoding parameters
type Config struct {
	BaseURL     string        // default: https://nominatim.openstreetmap.org
	UserAgent   string        // default: geolabel
	Language    string        // default: en
	Timeout     time.Duration // per request, default: 10s
	MaxAttempts int           // attempts on timeout, default: 2 (one retry)
	Backoff     time.Duration // wait between attempts, default: 1s
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.UserAgent == "" {
		c.UserAgent = "geolabel"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 2
	}
	if c.Backoff <= 0 {
		c.Backoff = time.Second
	}
}

// Place is the subset of a reverse geocoding response we use
type Place struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}

// Client queries the /reverse endpoint
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	cfg.defaults()
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// Reverse performs one lookup. A point with no address (open sea) yields a
// Place with an empty DisplayName.
func (c *Client) Reverse(ctx context.Context, coord models.Coordinate) (*Place, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	q.Set("accept-language", c.cfg.Language)
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/reverse?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	t0 := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reverse geocoding: unexpected status %d", resp.StatusCode)
	}

	var place Place
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return nil, fmt.Errorf("reverse geocoding: decode response: %w", err)
	}
	c.logger.Debug("reverse_geocode", "coordinate", coord.String(), "display_name", place.DisplayName,
		"duration_ms", time.Since(t0).Milliseconds())
	return &place, nil
}

// ReverseWithRetry repeats Reverse while it times out, waiting Backoff
// between attempts, up to MaxAttempts. Returns ErrTimeout once exhausted.
func (c *Client) ReverseWithRetry(ctx context.Context, coord models.Coordinate) (*Place, error) {
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		place, err := c.Reverse(ctx, coord)
		if err == nil {
			return place, nil
		}
		// Cancellation of the caller's context is not a service timeout
		if ctx.Err() != nil || !IsTimeout(err) {
			return nil, err
		}

		c.logger.Warn("reverse geocoding timed out", "coordinate", coord.String(), "attempt", attempt)
		if attempt == c.cfg.MaxAttempts {
			break
		}
		if err := sleep(ctx, c.cfg.Backoff); err != nil {
			return nil, err
		}
	}
	return nil, ErrTimeout
}

// IsTimeout reports whether err is a request timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Package labeling assigns region labels to geotagged images and collects
// the labeled images into an output directory.
package labeling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kass/go-geo-label/pkg/models"
	"github.com/kass/go-geo-label/pkg/resolver"
)

// DefaultExt is the image extension used when DirLookup.Ext is empty
const DefaultExt = "png"

// ErrSameFile is returned when the output directory holds the source images
var ErrSameFile = errors.New("source and destination are the same file")

// ImageLookup maps a 1-based image identifier to the path of its file
type ImageLookup interface {
	Path(id int) string
}

// DirLookup finds images named {id}.{ext} in a directory
type DirLookup struct {
	Dir string
	Ext string
}

// Path returns Dir/{id}.{Ext}
func (d DirLookup) Path(id int) string {
	ext := strings.TrimPrefix(d.Ext, ".")
	if ext == "" {
		ext = DefaultExt
	}
	return filepath.Join(d.Dir, strconv.Itoa(id)+"."+ext)
}

// Stats summarises a labeling run
type Stats struct {
	Total    int
	Resolved int
	Copied   int
	Missing  int
}

// Result is the outcome of LabelAll. Every Mapping key has a file in Copied.
type Result struct {
	Copied  []string
	Mapping models.LabelMapping
	Stats   Stats
}

// Pipeline copies resolved images into OutDir
type Pipeline struct {
	Images ImageLookup
	OutDir string
	Logger *slog.Logger
}

// NewPipeline creates a pipeline writing into outDir
func NewPipeline(images ImageLookup, outDir string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Images: images, OutDir: outDir, Logger: logger}
}

// LabelAll resolves each coordinate in order, copies the matching image and
// records its label. Identifiers are 1-based input positions. Images that
// do not exist are skipped and never appear in the mapping.
func (p *Pipeline) LabelAll(ctx context.Context, coords []models.Coordinate, r resolver.Resolver) (*Result, error) {
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &Result{Mapping: models.LabelMapping{}}
	for i, c := range coords {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := i + 1
		result.Stats.Total++

		region, ok := r.Resolve(c)
		if !ok {
			continue
		}
		result.Stats.Resolved++

		dst, copied, err := p.copyImage(id)
		if err != nil {
			return nil, err
		}
		if !copied {
			result.Stats.Missing++
			continue
		}
		result.Copied = append(result.Copied, dst)
		result.Mapping[strconv.Itoa(id)] = region.Label
		result.Stats.Copied++
	}

	p.Logger.Info("labeling finished",
		"total", result.Stats.Total,
		"resolved", result.Stats.Resolved,
		"copied", result.Stats.Copied,
		"missing", result.Stats.Missing)
	return result, nil
}

// Matcher decides whether a coordinate belongs to the wanted area
type Matcher interface {
	Matches(ctx context.Context, c models.Coordinate) (bool, error)
}

// FilterByCountry copies every image whose coordinate is accepted by m.
// No mapping is produced.
func (p *Pipeline) FilterByCountry(ctx context.Context, coords []models.Coordinate, m Matcher) (*Result, error) {
	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &Result{}
	for i, c := range coords {
		id := i + 1
		result.Stats.Total++

		ok, err := m.Matches(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("coordinate %d %s: %w", id, c, err)
		}
		if !ok {
			continue
		}
		result.Stats.Resolved++

		dst, copied, err := p.copyImage(id)
		if err != nil {
			return nil, err
		}
		if !copied {
			result.Stats.Missing++
			continue
		}
		result.Copied = append(result.Copied, dst)
		result.Stats.Copied++
	}

	p.Logger.Info("country filter finished",
		"total", result.Stats.Total,
		"matched", result.Stats.Resolved,
		"copied", result.Stats.Copied,
		"missing", result.Stats.Missing)
	return result, nil
}

// copyImage copies image id into OutDir. copied is false when the source
// does not exist.
func (p *Pipeline) copyImage(id int) (dst string, copied bool, err error) {
	src := p.Images.Path(id)
	in, err := os.Open(src)
	if errors.Is(err, fs.ErrNotExist) {
		p.Logger.Debug("image not found, skipping", "id", id, "path", src)
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to open image %d: %w", id, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", false, fmt.Errorf("failed to stat image %d: %w", id, err)
	}
	if info.IsDir() {
		p.Logger.Debug("image path is a directory, skipping", "id", id, "path", src)
		return "", false, nil
	}

	dst = filepath.Join(p.OutDir, filepath.Base(src))
	if existing, err := os.Stat(dst); err == nil && os.SameFile(info, existing) {
		return "", false, fmt.Errorf("image %d: %s: %w", id, dst, ErrSameFile)
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", false, fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", false, fmt.Errorf("failed to copy image %d: %w", id, err)
	}
	if err := out.Close(); err != nil {
		return "", false, fmt.Errorf("failed to close %s: %w", dst, err)
	}
	return dst, true, nil
}

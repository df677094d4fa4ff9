package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "region", cfg.Boundary.LabelProperty)
	assert.Equal(t, "Spain", cfg.Geocode.Country)
	assert.Equal(t, 2, cfg.Geocode.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Geocode.Backoff)
	assert.Equal(t, "png", cfg.Labeling.Ext)
	assert.Equal(t, 32, cfg.Inference.BatchSize)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := `
boundary:
  source: spain.shp
  filter:
    - admin=Spain
geocode:
  backoff: 250ms
inference:
  batch_size: 8
`
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("GEOLABEL_GEOCODE_COUNTRY", "Portugal")
	t.Setenv("GEOLABEL_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "spain.shp", cfg.Boundary.Source)
	assert.Equal(t, []string{"admin=Spain"}, cfg.Boundary.Filter)
	assert.Equal(t, 250*time.Millisecond, cfg.Geocode.Backoff)
	assert.Equal(t, 8, cfg.Inference.BatchSize)
	assert.Equal(t, "Portugal", cfg.Geocode.Country)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEOLABEL_LABELING_EXT=jpg\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("GEOLABEL_LABELING_EXT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "jpg", cfg.Labeling.Ext)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Geocode.MaxAttempts = 0
	cfg.Inference.Backend = "onnx"
	cfg.Inference.BatchSize = 0
	cfg.Boundary.Filter = []string{"admin"}

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"geocode.max_attempts",
		"inference.checkpoint",
		"inference.model_config",
		"inference.batch_size",
		"boundary.filter",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir on toolchains that predate it
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

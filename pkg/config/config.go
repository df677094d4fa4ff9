package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Boundary  BoundaryConfig  `mapstructure:"boundary"`
	Geocode   GeocodeConfig   `mapstructure:"geocode"`
	Labeling  LabelingConfig  `mapstructure:"labeling"`
	Inference InferenceConfig `mapstructure:"inference"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type BoundaryConfig struct {
	Source        string   `mapstructure:"source"`
	LabelProperty string   `mapstructure:"label_property"`
	Filter        []string `mapstructure:"filter"`
	Table         string   `mapstructure:"table"`
}

type GeocodeConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	UserAgent   string        `mapstructure:"user_agent"`
	Language    string        `mapstructure:"language"`
	Country     string        `mapstructure:"country"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Backoff     time.Duration `mapstructure:"backoff"`
}

type LabelingConfig struct {
	Coords    string `mapstructure:"coords"`
	InputDir  string `mapstructure:"input_dir"`
	OutputDir string `mapstructure:"output_dir"`
	Ext       string `mapstructure:"ext"`
	Mapping   string `mapstructure:"mapping"`
}

type InferenceConfig struct {
	Backend     string        `mapstructure:"backend"`
	Endpoint    string        `mapstructure:"endpoint"`
	Checkpoint  string        `mapstructure:"checkpoint"`
	ModelConfig string        `mapstructure:"model_config"`
	BatchSize   int           `mapstructure:"batch_size"`
	ImageSide   int           `mapstructure:"image_side"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Vocabulary  []string      `mapstructure:"vocabulary"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional YAML file and environment
// variables. An empty path looks for geolabel.yaml in the working directory.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()

	// Defaults
	v.SetDefault("boundary.source", "data/comunidades.geojson")
	v.SetDefault("boundary.label_property", "region")
	v.SetDefault("boundary.filter", []string{})
	v.SetDefault("boundary.table", "regions")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "geolabel")
	v.SetDefault("geocode.language", "en")
	v.SetDefault("geocode.country", "Spain")
	v.SetDefault("geocode.timeout", 10*time.Second)
	v.SetDefault("geocode.max_attempts", 2)
	v.SetDefault("geocode.backoff", time.Second)
	v.SetDefault("labeling.coords", "coordinates.csv")
	v.SetDefault("labeling.input_dir", "images")
	v.SetDefault("labeling.output_dir", "labeled")
	v.SetDefault("labeling.ext", "png")
	v.SetDefault("labeling.mapping", "mapping.json")
	v.SetDefault("inference.backend", "http")
	v.SetDefault("inference.endpoint", "http://localhost:8000/logits")
	v.SetDefault("inference.checkpoint", "")
	v.SetDefault("inference.model_config", "")
	v.SetDefault("inference.batch_size", 32)
	v.SetDefault("inference.image_side", 224)
	v.SetDefault("inference.timeout", 60*time.Second)
	v.SetDefault("inference.vocabulary", []string{})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("geolabel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: GEOLABEL_GEOCODE_COUNTRY → geocode.country
	v.SetEnvPrefix("GEOLABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Boundary.LabelProperty == "" {
		errs = append(errs, "boundary.label_property is required")
	}
	for _, f := range c.Boundary.Filter {
		if !strings.Contains(f, "=") {
			errs = append(errs, fmt.Sprintf("boundary.filter entry %q must be key=value", f))
		}
	}
	if c.Geocode.BaseURL == "" {
		errs = append(errs, "geocode.base_url is required")
	}
	if c.Geocode.Country == "" {
		errs = append(errs, "geocode.country is required")
	}
	if c.Geocode.Timeout <= 0 {
		errs = append(errs, "geocode.timeout must be positive")
	}
	if c.Geocode.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("geocode.max_attempts must be at least 1, got %d", c.Geocode.MaxAttempts))
	}
	if c.Geocode.Backoff < 0 {
		errs = append(errs, "geocode.backoff must not be negative")
	}
	if c.Labeling.Ext == "" {
		errs = append(errs, "labeling.ext is required")
	}
	switch c.Inference.Backend {
	case "http":
		if c.Inference.Endpoint == "" {
			errs = append(errs, "inference.endpoint is required for the http backend")
		}
	case "onnx":
		if c.Inference.Checkpoint == "" {
			errs = append(errs, "inference.checkpoint is required for the onnx backend")
		}
		if c.Inference.ModelConfig == "" {
			errs = append(errs, "inference.model_config is required for the onnx backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("inference.backend must be http or onnx, got %q", c.Inference.Backend))
	}
	if c.Inference.BatchSize <= 0 {
		errs = append(errs, fmt.Sprintf("inference.batch_size must be positive, got %d", c.Inference.BatchSize))
	}
	if c.Inference.Timeout <= 0 {
		errs = append(errs, "inference.timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

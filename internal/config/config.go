package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"blackswans/internal/analysis"
	"blackswans/internal/claims"
	"blackswans/internal/errors"
	"blackswans/internal/logging"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Data     DataConfig     `yaml:"data"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Log      logging.Config `yaml:"log"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Addr         string        `yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gte=0"`
}

// DataConfig locates price files
type DataConfig struct {
	Dir         string `yaml:"dir" validate:"required"`
	CatalogFile string `yaml:"catalog_file"`
}

// AnalysisConfig holds the defaults used when a request or flag leaves a
// parameter unset
type AnalysisConfig struct {
	Quantiles          []float64 `yaml:"quantiles" validate:"min=1,dive,gt=0,lt=1"`
	MAWindow           int       `yaml:"ma_window" validate:"gte=1"`
	BestCount          int       `yaml:"best_count" validate:"gte=0"`
	WorstCount         int       `yaml:"worst_count" validate:"gte=0"`
	Alpha              float64   `yaml:"alpha" validate:"gt=0,lt=1"`
	BootstrapResamples int       `yaml:"bootstrap_resamples" validate:"gte=1"`
	Confidence         float64   `yaml:"confidence" validate:"gt=0,lt=1"`
	Seed               int64     `yaml:"seed"`
}

// Default returns the built-in configuration
func Default() *Config {
	params := analysis.DefaultAnalysisParams()
	cc := claims.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Data: DataConfig{
			Dir: "data",
		},
		Analysis: AnalysisConfig{
			Quantiles:          params.Quantiles,
			MAWindow:           params.Window,
			BestCount:          params.BestN,
			WorstCount:         params.WorstN,
			Alpha:              cc.Alpha,
			BootstrapResamples: cc.BootstrapResamples,
			Confidence:         cc.Confidence,
			Seed:               cc.Seed,
		},
		Log: logging.Config{Level: "INFO", Format: "console"},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// BLACKSWANS_CONFIG, then environment variables (a .env file is read first
// and never overrides variables already set).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to read .env")
	}

	config := Default()
	if path := os.Getenv("BLACKSWANS_CONFIG"); path != "" {
		if err := overlayFile(config, path); err != nil {
			return nil, err
		}
	}
	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// LoadFile is Default overlaid with one YAML file, without environment overrides
func LoadFile(path string) (*Config, error) {
	config := Default()
	if err := overlayFile(config, path); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func overlayFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "read config %s", path))
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "parse config %s", path))
	}
	return nil
}

func applyEnv(c *Config) {
	c.Server.Addr = getEnvOrDefault("BLACKSWANS_ADDR", c.Server.Addr)
	if port := os.Getenv("PORT"); port != "" && os.Getenv("BLACKSWANS_ADDR") == "" {
		c.Server.Addr = ":" + port
	}
	c.Server.ReadTimeout = getEnvDurationOrDefault("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDurationOrDefault("WRITE_TIMEOUT", c.Server.WriteTimeout)

	c.Data.Dir = getEnvOrDefault("DATA_DIR", c.Data.Dir)
	c.Data.CatalogFile = getEnvOrDefault("TICKERS_FILE", c.Data.CatalogFile)

	c.Analysis.Quantiles = getEnvFloatsOrDefault("QUANTILES", c.Analysis.Quantiles)
	c.Analysis.MAWindow = getEnvIntOrDefault("MA_WINDOW", c.Analysis.MAWindow)
	c.Analysis.BestCount = getEnvIntOrDefault("BEST_COUNT", c.Analysis.BestCount)
	c.Analysis.WorstCount = getEnvIntOrDefault("WORST_COUNT", c.Analysis.WorstCount)
	c.Analysis.Alpha = getEnvFloatOrDefault("ALPHA", c.Analysis.Alpha)
	c.Analysis.BootstrapResamples = getEnvIntOrDefault("BOOTSTRAP_RESAMPLES", c.Analysis.BootstrapResamples)
	c.Analysis.Confidence = getEnvFloatOrDefault("CONFIDENCE", c.Analysis.Confidence)
	c.Analysis.Seed = int64(getEnvIntOrDefault("SEED", int(c.Analysis.Seed)))

	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("LOG_FORMAT", c.Log.Format)
}

var validate = validator.New()

func validateConfig(config *Config) error {
	if err := validate.Struct(config); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	return nil
}

// Params converts the analysis defaults into core parameters
func (a AnalysisConfig) Params() analysis.AnalysisParams {
	return analysis.AnalysisParams{
		Quantiles: append([]float64(nil), a.Quantiles...),
		Window:    a.MAWindow,
		BestN:     a.BestCount,
		WorstN:    a.WorstCount,
	}
}

// ClaimsConfig applies the configurable thresholds on top of the claim defaults
func (a AnalysisConfig) ClaimsConfig() claims.Config {
	cc := claims.DefaultConfig()
	cc.Alpha = a.Alpha
	cc.BootstrapResamples = a.BootstrapResamples
	cc.Confidence = a.Confidence
	cc.Seed = a.Seed
	return cc
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvFloatsOrDefault parses a comma-separated list; any bad entry keeps the default
func getEnvFloatsOrDefault(key string, defaultValue []float64) []float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	out, err := ParseFloats(value)
	if err != nil {
		return defaultValue
	}
	return out
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ParseFloats parses "0.99,0.999" style lists
func ParseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, errors.InvalidParameter("invalid number %q", p)
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.InvalidParameter("empty list %q", s)
	}
	return out, nil
}

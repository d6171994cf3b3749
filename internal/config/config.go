// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"routegeo/internal/dispatch"
	"routegeo/internal/geo"
)

// DefaultPath is read when ROUTEGEO_CONFIG is unset.
const DefaultPath = "routegeo.yaml"

type Config struct {
	Port          string        `yaml:"port"`
	DatabaseURL   string        `yaml:"databaseUrl"`
	RedisURL      string        `yaml:"redisUrl"`
	CacheTTL      time.Duration `yaml:"cacheTtl"`
	CacheSize     int           `yaml:"cacheSize"`
	RateRPS       float64       `yaml:"rateRps"`
	RateBurst     int           `yaml:"rateBurst"`
	MaxEncodedLen int           `yaml:"maxEncodedLen"`
	Decode        DecodeConfig  `yaml:"decode"`
	Log           LogConfig     `yaml:"log"`
}

type DecodeConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	Threshold     int           `yaml:"simplifyThreshold"`
	Tolerance     float64       `yaml:"simplifyTolerance"`
	WorkerEnabled bool          `yaml:"workerEnabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:          "8080",
		CacheTTL:      10 * time.Minute,
		CacheSize:     1024,
		RateBurst:     20,
		MaxEncodedLen: 1 << 20,
		Decode: DecodeConfig{
			Timeout:       dispatch.DefaultTimeout,
			Threshold:     geo.DefaultThreshold,
			Tolerance:     geo.DefaultTolerance,
			WorkerEnabled: true,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads path (or ROUTEGEO_CONFIG, or DefaultPath when both are empty),
// applies environment overrides and validates the result. A missing file is
// not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("ROUTEGEO_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}
	if err := cfg.loadFile(path); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("PORT", &c.Port)
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_URL", &c.RedisURL)
	dur("CACHE_TTL", &c.CacheTTL)
	num("CACHE_SIZE", &c.CacheSize)
	float("RATE_RPS", &c.RateRPS)
	num("RATE_BURST", &c.RateBurst)
	num("MAX_ENCODED_LEN", &c.MaxEncodedLen)
	dur("DECODE_TIMEOUT", &c.Decode.Timeout)
	num("SIMPLIFY_THRESHOLD", &c.Decode.Threshold)
	float("SIMPLIFY_TOLERANCE", &c.Decode.Tolerance)
	if v := strings.TrimSpace(getenv("WORKER_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("WORKER_ENABLED: %w", err))
		} else {
			c.Decode.WorkerEnabled = b
		}
	}
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, errors.New("cacheTtl must be >= 0"))
	}
	if c.CacheSize < 0 {
		errs = append(errs, errors.New("cacheSize must be >= 0"))
	}
	if c.RateRPS < 0 {
		errs = append(errs, errors.New("rateRps must be >= 0"))
	}
	if c.RateRPS > 0 && c.RateBurst < 1 {
		errs = append(errs, errors.New("rateBurst must be >= 1 when rateRps is set"))
	}
	if c.MaxEncodedLen <= 0 {
		errs = append(errs, errors.New("maxEncodedLen must be > 0"))
	}
	if c.Decode.Timeout <= 0 {
		errs = append(errs, errors.New("decode.timeout must be > 0"))
	}
	if c.Decode.Threshold < 0 {
		errs = append(errs, errors.New("decode.simplifyThreshold must be >= 0"))
	}
	if c.Decode.Tolerance < 0 {
		errs = append(errs, errors.New("decode.simplifyTolerance must be >= 0"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Redacted returns settings safe to expose on debug endpoints.
func (c Config) Redacted() map[string]any {
	return map[string]any{
		"port":              c.Port,
		"hasDatabaseUrl":    c.DatabaseURL != "",
		"hasRedisUrl":       c.RedisURL != "",
		"cacheTtl":          c.CacheTTL.String(),
		"cacheSize":         c.CacheSize,
		"rateRps":           c.RateRPS,
		"rateBurst":         c.RateBurst,
		"maxEncodedLen":     c.MaxEncodedLen,
		"decodeTimeout":     c.Decode.Timeout.String(),
		"simplifyThreshold": c.Decode.Threshold,
		"simplifyTolerance": c.Decode.Tolerance,
		"workerEnabled":     c.Decode.WorkerEnabled,
		"logLevel":          c.Log.Level,
	}
}

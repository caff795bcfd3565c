// Package config loads application configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/bissquit/incident-room/internal/enrichment"
)

// envPrefix is stripped from override variables; nesting uses "__",
// e.g. INCIDENTROOM_SERVER__PORT=9090.
const envPrefix = "INCIDENTROOM_"

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Log        LogConfig        `koanf:"log"`
	CORS       CORSConfig       `koanf:"cors"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	WS         WSConfig         `koanf:"ws"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// EnrichmentConfig contains background pipeline settings.
type EnrichmentConfig struct {
	Workers          int           `koanf:"workers"`
	QueueSize        int           `koanf:"queue_size"`
	QueuePolicy      string        `koanf:"queue_policy"`
	SummaryDelay     time.Duration `koanf:"summary_delay"`
	SummaryTimeout   time.Duration `koanf:"summary_timeout"`
	SummaryMaxLength int           `koanf:"summary_max_length"`
}

// WSConfig contains websocket room settings.
type WSConfig struct {
	MessageRate  float64 `koanf:"message_rate"`
	MessageBurst int     `koanf:"message_burst"`
}

// Default returns the configuration defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		Enrichment: EnrichmentConfig{
			Workers:          2,
			QueueSize:        1024,
			QueuePolicy:      string(enrichment.PolicyReject),
			SummaryDelay:     1500 * time.Millisecond,
			SummaryTimeout:   30 * time.Second,
			SummaryMaxLength: 160,
		},
		WS: WSConfig{
			MessageRate:  5,
			MessageBurst: 10,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, in that precedence order.
func Load(path string) (*Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".",
		)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the config file path from CONFIG_PATH, if set.
func Path() string {
	return os.Getenv("CONFIG_PATH")
}

func (c *Config) validate() error {
	if c.Enrichment.Workers < 1 {
		return fmt.Errorf("enrichment.workers must be >= 1, got %d", c.Enrichment.Workers)
	}
	if c.Enrichment.QueueSize < 1 {
		return fmt.Errorf("enrichment.queue_size must be >= 1, got %d", c.Enrichment.QueueSize)
	}
	if !enrichment.FullPolicy(c.Enrichment.QueuePolicy).IsValid() {
		return fmt.Errorf("enrichment.queue_policy must be %q or %q, got %q",
			enrichment.PolicyReject, enrichment.PolicyBlock, c.Enrichment.QueuePolicy)
	}
	if c.Enrichment.SummaryMaxLength < 1 {
		return fmt.Errorf("enrichment.summary_max_length must be >= 1, got %d", c.Enrichment.SummaryMaxLength)
	}
	if c.WS.MessageRate <= 0 {
		return fmt.Errorf("ws.message_rate must be > 0, got %v", c.WS.MessageRate)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"80"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Correios
	CorreiosEnabled        bool          `envconfig:"CORREIOS_ENABLED" default:"true"`
	CorreiosBaseURL        string        `envconfig:"CORREIOS_BASE_URL" default:"http://ws.correios.com.br"`
	CorreiosTimeout        time.Duration `envconfig:"CORREIOS_TIMEOUT" default:"30s"`
	CorreiosInsecureTLS    bool          `envconfig:"CORREIOS_INSECURE_TLS" default:"true"`
	CorreiosUseMock        bool          `envconfig:"CORREIOS_USE_MOCK" default:"false"`
	CorreiosMaxConcurrency int           `envconfig:"CORREIOS_MAX_CONCURRENCY" default:"5"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://jaeger-collector.claude.svc.cluster.local:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"tournevent-correios"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables. Values from a .env
// file in the working directory are applied first without overriding the
// real environment; a missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("correios.enabled", c.CorreiosEnabled),
		attribute.Bool("correios.use_mock", c.CorreiosUseMock),
		attribute.String("correios.base_url", c.CorreiosBaseURL),
	}
}

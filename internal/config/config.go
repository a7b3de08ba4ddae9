// Package config defines the process configuration for eventcast. It is
// loaded once at startup and is immutable thereafter.
//
// Values are resolved with the OS environment taking priority over a .env
// file in the working directory. A missing required value or an invalid
// format fails startup.
package config

import (
	"time"

	"eventcast/internal/types"
)

// SecretString is an alias for types.SecretString so config consumers don't
// need to import types for it.
type SecretString = types.SecretString

// Config is the top-level configuration struct.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	Server        ServerConfig
	Weather       WeatherConfig
	Geocoder      GeocoderConfig
	Security      SecurityConfig
	Observability ObservabilityConfig
	AWS           AWSConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080" validate:"required,numeric"`

	// RequestTimeout bounds each request's context. In Lambda it should be
	// the function timeout minus a second.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"29s" validate:"gt=0"`
}

// WeatherConfig configures the Visual Crossing client. The API key is the
// only secret eventcast needs.
type WeatherConfig struct {
	APIKey  SecretString  `envconfig:"WEATHER_API_KEY" validate:"required"`
	BaseURL string        `envconfig:"WEATHER_BASE_URL" validate:"omitempty,url"`
	Timeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s" validate:"gt=0"`
}

// GeocoderConfig configures the Nominatim client.
type GeocoderConfig struct {
	BaseURL           string  `envconfig:"GEOCODER_BASE_URL" validate:"omitempty,url"`
	UserAgent         string  `envconfig:"GEOCODER_USER_AGENT" default:"WeatherApp/1.0" validate:"required"`
	RequestsPerSecond float64 `envconfig:"GEOCODER_RPS" default:"1" validate:"gt=0,lte=10"`
}

// SecurityConfig holds browser-facing settings.
type SecurityConfig struct {
	CorsAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"EventCast"`
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
}

// AWSConfig holds regional configuration for the CloudWatch client.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not set.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates an environment value could not be parsed into its
	// target type.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)

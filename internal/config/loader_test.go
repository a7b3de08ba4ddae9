package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_ENV", "LOG_LEVEL",
	"PORT", "REQUEST_TIMEOUT",
	"WEATHER_API_KEY", "WEATHER_BASE_URL", "UPSTREAM_TIMEOUT",
	"GEOCODER_BASE_URL", "GEOCODER_USER_AGENT", "GEOCODER_RPS",
	"CORS_ALLOWED_ORIGINS",
	"METRIC_NAMESPACE", "ENABLE_METRICS",
	"AWS_REGION", "AWS_ENDPOINT_URL",
}

// clearEnv unsets every variable the loader reads. t.Setenv restores the
// original values when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func noDotenv() loaderDeps {
	return loaderDeps{}
}

func requireConfigError(t *testing.T, err error, want ConfigErrorType) *ConfigError {
	t.Helper()
	require.Error(t, err)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %T", err)
	assert.Equal(t, want, cfgErr.Type)
	return cfgErr
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_API_KEY", "vc-key")

	cfg, err := loadConfigWithDeps(noDotenv())
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 29*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "vc-key", cfg.Weather.APIKey.Unmask())
	assert.Empty(t, cfg.Weather.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, "WeatherApp/1.0", cfg.Geocoder.UserAgent)
	assert.Equal(t, 1.0, cfg.Geocoder.RequestsPerSecond)
	assert.Equal(t, []string{"*"}, cfg.Security.CorsAllowedOrigins)
	assert.Equal(t, "EventCast", cfg.Observability.MetricNamespace)
	assert.False(t, cfg.Observability.EnableMetrics)
	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Equal(t, NewBuildInfo(), cfg.Build)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("WEATHER_API_KEY", "vc-key")
	t.Setenv("WEATHER_BASE_URL", "http://localhost:4010/timeline")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("GEOCODER_BASE_URL", "http://localhost:4011/search")
	t.Setenv("GEOCODER_USER_AGENT", "EventCast-Test/2.0")
	t.Setenv("GEOCODER_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("METRIC_NAMESPACE", "EventCastStaging")
	t.Setenv("ENABLE_METRICS", "true")
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("AWS_ENDPOINT_URL", "http://localhost:4566")

	cfg, err := loadConfigWithDeps(noDotenv())
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "http://localhost:4010/timeline", cfg.Weather.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Weather.Timeout)
	assert.Equal(t, "http://localhost:4011/search", cfg.Geocoder.BaseURL)
	assert.Equal(t, "EventCast-Test/2.0", cfg.Geocoder.UserAgent)
	assert.Equal(t, 2.5, cfg.Geocoder.RequestsPerSecond)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.CorsAllowedOrigins)
	assert.Equal(t, "EventCastStaging", cfg.Observability.MetricNamespace)
	assert.True(t, cfg.Observability.EnableMetrics)
	assert.Equal(t, "us-west-2", cfg.AWS.Region)
	assert.Equal(t, "http://localhost:4566", cfg.AWS.EndpointURL)
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfigWithDeps(noDotenv())
	assert.Nil(t, cfg)

	cfgErr := requireConfigError(t, err, ErrMissingEnv)
	assert.Equal(t, []string{"WEATHER_API_KEY"}, cfgErr.Fields)
	assert.Contains(t, err.Error(), "WEATHER_API_KEY")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown environment", "APP_ENV", "production"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"non-numeric port", "PORT", "http"},
		{"zero request timeout", "REQUEST_TIMEOUT", "0s"},
		{"malformed weather url", "WEATHER_BASE_URL", "not a url"},
		{"zero geocoder rate", "GEOCODER_RPS", "0"},
		{"geocoder rate too high", "GEOCODER_RPS", "50"},
		{"malformed endpoint", "AWS_ENDPOINT_URL", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("WEATHER_API_KEY", "vc-key")
			t.Setenv(tt.key, tt.value)

			_, err := loadConfigWithDeps(noDotenv())
			cfgErr := requireConfigError(t, err, ErrValidation)
			assert.Equal(t, []string{tt.key}, cfgErr.Fields)
		})
	}
}

func TestLoadConfig_MissingTakesPrecedenceOverInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := loadConfigWithDeps(noDotenv())
	cfgErr := requireConfigError(t, err, ErrMissingEnv)
	assert.Equal(t, []string{"WEATHER_API_KEY"}, cfgErr.Fields)
}

func TestLoadConfig_ParseError(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"GEOCODER_RPS", "fast"},
		{"REQUEST_TIMEOUT", "thirty"},
		{"ENABLE_METRICS", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("WEATHER_API_KEY", "vc-key")
			t.Setenv(tt.key, tt.value)

			_, err := loadConfigWithDeps(noDotenv())
			cfgErr := requireConfigError(t, err, ErrParsing)
			assert.NotNil(t, cfgErr.Unwrap())
		})
	}
}

func TestLoadConfig_DotenvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7070")

	path := filepath.Join(t.TempDir(), ".env")
	contents := "WEATHER_API_KEY=from-dotenv\nPORT=6060\nGEOCODER_RPS=3\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := loadConfigWithDeps(loaderDeps{
		loadDotenv:  godotenv.Load,
		dotenvFiles: []string{path},
	})
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Weather.APIKey.Unmask())
	assert.Equal(t, 3.0, cfg.Geocoder.RequestsPerSecond)
	assert.Equal(t, "7070", cfg.Server.Port, "process environment wins over .env")
}

func TestLoadConfig_MissingDotenvIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_API_KEY", "vc-key")

	_, err := loadConfigWithDeps(loaderDeps{
		loadDotenv:  godotenv.Load,
		dotenvFiles: []string{filepath.Join(t.TempDir(), "absent.env")},
	})
	require.NoError(t, err)
}

func TestLoadConfig_SetsUTC(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_API_KEY", "vc-key")

	original := time.Local
	t.Cleanup(func() { time.Local = original })
	time.Local = time.FixedZone("elsewhere", 3*3600)

	_, err := loadConfigWithDeps(noDotenv())
	require.NoError(t, err)
	assert.Equal(t, time.UTC, time.Local)
}

func TestConfigError_Error(t *testing.T) {
	inner := errors.New("boom")

	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "message only",
			err:  &ConfigError{Type: ErrValidation, Message: "bad"},
			want: "[VALIDATION_FAILED] bad",
		},
		{
			name: "with fields and cause",
			err:  &ConfigError{Type: ErrMissingEnv, Message: "unset", Fields: []string{"A", "B"}, Err: inner},
			want: "[MISSING_ENV] unset (A, B): boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	wrapped := &ConfigError{Type: ErrParsing, Err: inner}
	assert.ErrorIs(t, wrapped, inner)
}

// Package main is the entry point for the eventcast API server.
//
// It loads configuration, builds the weather and location clients, the
// outlook planner and the HTTP chassis, and then serves requests. Inside AWS
// Lambda it hands API Gateway events to the same router; everywhere else it
// runs a plain HTTP server with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"

	"eventcast/internal/api/handlers"
	"eventcast/internal/config"
	"eventcast/internal/core"
	"eventcast/internal/external"
	"eventcast/internal/metrics"
	"eventcast/internal/planner"
	"eventcast/internal/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("eventcast API starting",
		"environment", cfg.Environment,
		"build", cfg.Build.String(),
		"port", cfg.Server.Port,
	)

	recorder, err := newRecorder(context.Background(), cfg, logger)
	if err != nil {
		return fmt.Errorf("creating metrics recorder: %w", err)
	}

	srv, err := buildServer(cfg, logger, recorder)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		logger.Info("starting in Lambda mode")
		lambda.Start(core.NewLambdaHandler(srv.Handler()))
		return nil
	}

	return runHTTPServer(srv, cfg, logger)
}

// buildServer wires the upstream clients, the planner and every v1 handler
// into a mounted core.Server.
func buildServer(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder) (*core.Server, error) {
	httpClient := &http.Client{Timeout: cfg.Weather.Timeout}

	weather := external.NewWeatherClient(httpClient, external.WeatherClientConfig{
		APIKey:   cfg.Weather.APIKey,
		BaseURL:  cfg.Weather.BaseURL,
		Logger:   logger,
		Recorder: recorder,
	})
	geocoder := external.NewLocationClient(httpClient, external.LocationClientConfig{
		BaseURL:           cfg.Geocoder.BaseURL,
		UserAgent:         cfg.Geocoder.UserAgent,
		RequestsPerSecond: cfg.Geocoder.RequestsPerSecond,
		Logger:            logger,
		Recorder:          recorder,
	})

	clock := types.RealClock{}
	plan := planner.NewPlanner(weather, recorder, logger, clock)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = recorder
	srv.HealthProbes = []core.HealthProbe{
		core.NewBreakerProbe(types.ProviderWeather, weather.Base()),
		core.NewBreakerProbe(types.ProviderGeocoder, geocoder.Base()),
	}

	forecastHandler := handlers.NewForecastHandler(weather, srv.Validator, clock, logger)
	locationHandler := handlers.NewLocationHandler(geocoder)
	scoreHandler := handlers.NewScoreHandler(plan, recorder, srv.Validator)
	outlookHandler := handlers.NewOutlookHandler(plan, srv.Validator, clock, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		forecastHandler.RegisterRoutes,
		locationHandler.RegisterRoutes,
		scoreHandler.RegisterRoutes,
		outlookHandler.RegisterRoutes,
	)

	srv.MountRoutes()
	return srv, nil
}

// newRecorder returns a CloudWatch recorder when metrics are enabled and a
// no-op recorder otherwise.
func newRecorder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (metrics.Recorder, error) {
	if !cfg.Observability.EnableMetrics {
		return metrics.Noop{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	cw := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	return metrics.NewCloudWatchRecorder(cw, cfg.Observability.MetricNamespace, types.SlogLogger{L: logger}), nil
}

// isLambdaEnvironment returns true if the process is running inside AWS Lambda.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasServerPort := os.LookupEnv("_LAMBDA_SERVER_PORT")
	return hasRuntimeAPI || hasServerPort
}

// runHTTPServer serves until SIGINT/SIGTERM and then drains in-flight
// requests for up to ten seconds.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a JSON slog.Logger for the given level name. Unknown
// names fall back to info.
func newLogger(level string) *slog.Logger {
	return newLoggerTo(os.Stdout, level)
}

func newLoggerTo(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

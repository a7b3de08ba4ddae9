package types

import (
	"context"
	"log/slog"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the real system time (always UTC).
type RealClock struct{}

// Now returns the current time in UTC.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// Logger defines the structured logging interface used for request-scoped
// loggers stored in the context.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// SlogLogger adapts *slog.Logger to the Logger interface.
type SlogLogger struct {
	L *slog.Logger
}

func (s SlogLogger) Info(msg string, args ...any)  { s.L.Info(msg, args...) }
func (s SlogLogger) Error(msg string, args ...any) { s.L.Error(msg, args...) }
func (s SlogLogger) Warn(msg string, args ...any)  { s.L.Warn(msg, args...) }

// With returns a child logger carrying the extra attributes.
func (s SlogLogger) With(args ...any) Logger { return SlogLogger{L: s.L.With(args...)} }

// ForecastFetcher retrieves hourly observations for a location and an
// inclusive YYYY-MM-DD date range.
type ForecastFetcher interface {
	FetchForecast(ctx context.Context, loc Location, startDate, endDate string) ([]HourlyObservation, error)
}

// LocationSearcher resolves free text or a postal code into location candidates.
// Implementations never return an error; failures degrade to an empty slice.
type LocationSearcher interface {
	SearchLocations(ctx context.Context, query string) []Location
}

package external

import (
	"context"
	"time"

	"eventcast/internal/types"
)

// UpstreamRecorder receives one observation per provider call. The metrics
// package implements it; a nil recorder is allowed and means "don't record".
type UpstreamRecorder interface {
	RecordUpstream(ctx context.Context, provider string, latency time.Duration, err error)
}

// Compile-time checks that the provider clients satisfy the domain ports.
var (
	_ types.ForecastFetcher  = (*WeatherClient)(nil)
	_ types.LocationSearcher = (*LocationClient)(nil)
)

func record(ctx context.Context, r UpstreamRecorder, provider string, start time.Time, err error) {
	if r == nil {
		return
	}
	r.RecordUpstream(ctx, provider, time.Since(start), err)
}

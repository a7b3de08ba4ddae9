// Package scoring turns a day of hourly forecast observations into an event
// suitability score, a list of notable conditions, and activity and
// preparation recommendations.
//
// The engine is a pure function. It performs no I/O, holds no state, and is
// safe to call concurrently.
package scoring

import (
	"math"

	"eventcast/internal/types"
)

// Daytime window, inclusive on both ends. Overnight hours do not count
// toward a day's score.
const (
	DaytimeStartHour = 6
	DaytimeEndHour   = 20
)

// DayStats aggregates the daytime observations of a single day.
type DayStats struct {
	AvgTemp       float64 `json:"avg_temp"`
	MaxTemp       float64 `json:"max_temp"`
	MinTemp       float64 `json:"min_temp"`
	MaxPrecipProb float64 `json:"max_precip_prob"`
	AvgWindSpeed  float64 `json:"avg_wind_speed"`
	MaxWindSpeed  float64 `json:"max_wind_speed"`
	MaxUV         float64 `json:"max_uv"`
	Hours         int     `json:"hours"`
}

// DaytimeObservations returns the observations whose hour falls inside the
// daytime window. Observations without a parseable hour are dropped.
func DaytimeObservations(obs []types.HourlyObservation) []types.HourlyObservation {
	out := make([]types.HourlyObservation, 0, len(obs))
	for _, o := range obs {
		h, ok := o.Hour()
		if !ok {
			continue
		}
		if h >= DaytimeStartHour && h <= DaytimeEndHour {
			out = append(out, o)
		}
	}
	return out
}

// ComputeDayStats aggregates the daytime subset of obs. The second return is
// false when no observation falls in the daytime window; DayStats is
// undefined in that case.
func ComputeDayStats(obs []types.HourlyObservation) (DayStats, bool) {
	day := DaytimeObservations(obs)
	if len(day) == 0 {
		return DayStats{}, false
	}

	stats := DayStats{
		MaxTemp:       math.Inf(-1),
		MinTemp:       math.Inf(1),
		MaxPrecipProb: math.Inf(-1),
		MaxWindSpeed:  math.Inf(-1),
		MaxUV:         math.Inf(-1),
		Hours:         len(day),
	}

	var tempSum, windSum float64
	for _, o := range day {
		tempSum += o.TemperatureF
		windSum += o.WindSpeedMph
		stats.MaxTemp = math.Max(stats.MaxTemp, o.TemperatureF)
		stats.MinTemp = math.Min(stats.MinTemp, o.TemperatureF)
		stats.MaxPrecipProb = math.Max(stats.MaxPrecipProb, o.PrecipitationProbabilityPct)
		stats.MaxWindSpeed = math.Max(stats.MaxWindSpeed, o.WindSpeedMph)
		stats.MaxUV = math.Max(stats.MaxUV, o.UVIndex)
	}

	n := float64(len(day))
	stats.AvgTemp = tempSum / n
	stats.AvgWindSpeed = windSum / n
	return stats, true
}

package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventcast/internal/types"
)

// visualCrossingAPIBase is the Visual Crossing timeline endpoint.
// Overridable in tests via WeatherClientConfig.BaseURL.
const visualCrossingAPIBase = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

// maxForecastBodyBytes bounds how much of a timeline response is read. A
// 15-day hourly response is well under 1 MiB.
const maxForecastBodyBytes = 8 << 20

// WeatherClientConfig holds the configuration for creating a WeatherClient.
type WeatherClientConfig struct {
	APIKey   types.SecretString
	BaseURL  string // Override for testing; defaults to visualCrossingAPIBase
	Logger   *slog.Logger
	Recorder UpstreamRecorder
}

// vcTimeline is the subset of the timeline response eventcast reads. Days is
// a pointer so that a missing key can be told apart from an empty array.
type vcTimeline struct {
	Days *[]vcDay `json:"days"`
}

type vcDay struct {
	Datetime string   `json:"datetime"`
	Hours    []vcHour `json:"hours"`
}

// vcHour fields are pointers because Visual Crossing sends null for values
// it has no model output for (precipprob past the short range, for example).
type vcHour struct {
	Datetime   string   `json:"datetime"`
	Temp       *float64 `json:"temp"`
	FeelsLike  *float64 `json:"feelslike"`
	Humidity   *float64 `json:"humidity"`
	WindSpeed  *float64 `json:"windspeed"`
	Conditions string   `json:"conditions"`
	PrecipProb *float64 `json:"precipprob"`
	UVIndex    *float64 `json:"uvindex"`
}

// WeatherClient fetches hourly forecasts from the Visual Crossing timeline
// API through BaseClient.
type WeatherClient struct {
	base     *BaseClient
	apiKey   types.SecretString
	baseURL  string
	logger   *slog.Logger
	recorder UpstreamRecorder
}

// NewWeatherClient creates a WeatherClient with its own circuit breaker.
func NewWeatherClient(httpClient *http.Client, cfg WeatherClientConfig) *WeatherClient {
	base := NewBaseClient(
		httpClient,
		types.ProviderWeather,
		DefaultRetryPolicy(),
		"EventCast/1.0",
		WithUnavailableCode(types.ErrCodeUpstreamWeather),
	)
	return NewWeatherClientWithBase(base, cfg)
}

// NewWeatherClientWithBase creates a WeatherClient around a pre-configured
// BaseClient, typically one with retries disabled or a fake sleep.
func NewWeatherClientWithBase(base *BaseClient, cfg WeatherClientConfig) *WeatherClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = visualCrossingAPIBase
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &WeatherClient{
		base:     base,
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
		recorder: cfg.Recorder,
	}
}

// Base exposes the underlying BaseClient for health reporting.
func (c *WeatherClient) Base() *BaseClient { return c.base }

// FetchForecast returns the hourly observations for loc between startDate
// and endDate inclusive, flattened across days in upstream order.
//
// A well-formed response with no days yields an empty slice and no error.
// A body without a "days" key, or one that is not JSON, is an
// ErrCodeUpstreamWeatherFormat error.
func (c *WeatherClient) FetchForecast(ctx context.Context, loc types.Location, startDate, endDate string) (obs []types.HourlyObservation, err error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateDateRange(startDate, endDate); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { record(ctx, c.recorder, types.ProviderWeather, start, err) }()

	reqURL := c.timelineURL(loc, startDate, endDate)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, types.NewAppError(
			types.ErrCodeInternalUnexpected,
			"failed to create forecast request",
			err,
		)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.InfoContext(ctx, "fetching forecast",
		"lat", loc.Latitude,
		"lng", loc.Longitude,
		"start", startDate,
		"end", endDate,
	)

	resp, err := c.base.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "forecast request failed", "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.handleErrorResponse(ctx, resp)
	}

	var timeline vcTimeline
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxForecastBodyBytes)).Decode(&timeline); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeatherFormat,
			"failed to decode forecast response",
			err,
		)
	}
	if timeline.Days == nil {
		c.logger.WarnContext(ctx, "forecast response has no days")
		return nil, types.NewAppError(
			types.ErrCodeUpstreamWeatherFormat,
			"forecast response is missing days",
			nil,
		)
	}

	obs = flattenDays(*timeline.Days)

	c.logger.InfoContext(ctx, "forecast fetched",
		"days", len(*timeline.Days),
		"hours", len(obs),
	)

	return obs, nil
}

func (c *WeatherClient) timelineURL(loc types.Location, startDate, endDate string) string {
	q := url.Values{}
	q.Set("key", c.apiKey.Unmask())
	q.Set("unitGroup", "us")
	q.Set("include", "hours")
	q.Set("contentType", "json")

	return fmt.Sprintf("%s/%s,%s/%s/%s?%s",
		c.baseURL,
		strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
		startDate,
		endDate,
		q.Encode(),
	)
}

// handleErrorResponse maps a 4xx that BaseClient passed through.
func (c *WeatherClient) handleErrorResponse(ctx context.Context, resp *http.Response) error {
	// Visual Crossing answers errors with a short plain-text body.
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	details := map[string]any{"status": resp.StatusCode}

	c.logger.WarnContext(ctx, "forecast provider returned an error",
		"status", resp.StatusCode,
		"body", strings.TrimSpace(string(snippet)),
	)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamWeatherUnauthorized,
			"forecast provider rejected the API key",
			nil,
			details,
		)
	}
	return types.NewAppErrorWithDetails(
		types.ErrCodeUpstreamWeather,
		fmt.Sprintf("forecast provider returned %d", resp.StatusCode),
		nil,
		details,
	)
}

func flattenDays(days []vcDay) []types.HourlyObservation {
	n := 0
	for _, d := range days {
		n += len(d.Hours)
	}

	out := make([]types.HourlyObservation, 0, n)
	for _, d := range days {
		for _, h := range d.Hours {
			out = append(out, types.HourlyObservation{
				Time:                        d.Datetime + "T" + h.Datetime,
				TemperatureF:                deref(h.Temp),
				FeelsLikeF:                  deref(h.FeelsLike),
				HumidityPct:                 deref(h.Humidity),
				WindSpeedMph:                deref(h.WindSpeed),
				Conditions:                  h.Conditions,
				PrecipitationProbabilityPct: deref(h.PrecipProb),
				UVIndex:                     deref(h.UVIndex),
			})
		}
	}
	return out
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// ValidateDateRange checks that both dates are YYYY-MM-DD and that end is
// not before start.
func ValidateDateRange(startDate, endDate string) error {
	start, err := time.Parse(types.DateLayout, startDate)
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidDate,
			"start date must be YYYY-MM-DD", err, map[string]any{"start": startDate})
	}
	end, err := time.Parse(types.DateLayout, endDate)
	if err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationInvalidDate,
			"end date must be YYYY-MM-DD", err, map[string]any{"end": endDate})
	}
	if end.Before(start) {
		return types.NewAppErrorWithDetails(types.ErrCodeValidationDateRange,
			"end date is before start date", nil, map[string]any{"start": startDate, "end": endDate})
	}
	return nil
}

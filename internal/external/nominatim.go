package external

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"eventcast/internal/types"
)

// nominatimAPIBase is the public OpenStreetMap search endpoint.
const nominatimAPIBase = "https://nominatim.openstreetmap.org/search"

const (
	defaultGeocoderUserAgent = "WeatherApp/1.0"
	minQueryLength           = 2
	maxCandidates            = 5
	maxSearchBodyBytes       = 1 << 20
	unknownLocationName      = "Unknown Location"
)

var postalCodePattern = regexp.MustCompile(`^\d{5}$`)

// LocationClientConfig holds the configuration for creating a LocationClient.
type LocationClientConfig struct {
	BaseURL   string // Override for testing; defaults to nominatimAPIBase
	UserAgent string
	// RequestsPerSecond caps outbound searches. Nominatim's usage policy
	// allows at most one per second. Zero means 1.
	RequestsPerSecond float64
	Logger            *slog.Logger
	Recorder          UpstreamRecorder
}

type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
}

// LocationClient searches US places by free text or ZIP code.
type LocationClient struct {
	base      *BaseClient
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
	logger    *slog.Logger
	recorder  UpstreamRecorder
}

// NewLocationClient creates a LocationClient. Geocoding is interactive, so
// the client does not retry; a failed search is simply empty.
func NewLocationClient(httpClient *http.Client, cfg LocationClientConfig) *LocationClient {
	base := NewBaseClient(
		httpClient,
		types.ProviderGeocoder,
		RetryPolicy{MaxRetries: 0, MinWait: 250 * time.Millisecond, MaxWait: time.Second},
		"",
		WithUnavailableCode(types.ErrCodeUpstreamGeocoder),
	)
	return NewLocationClientWithBase(base, cfg)
}

// NewLocationClientWithBase creates a LocationClient around a pre-configured BaseClient.
func NewLocationClientWithBase(base *BaseClient, cfg LocationClientConfig) *LocationClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = nominatimAPIBase
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultGeocoderUserAgent
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &LocationClient{
		base:      base,
		baseURL:   baseURL,
		userAgent: userAgent,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    logger,
		recorder:  cfg.Recorder,
	}
}

// Base exposes the underlying BaseClient for health reporting.
func (c *LocationClient) Base() *BaseClient { return c.base }

// SearchLocations returns up to five candidates for query. Queries shorter
// than two characters return nothing without a network call. Failures are
// logged and also return nothing.
func (c *LocationClient) SearchLocations(ctx context.Context, query string) []types.Location {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLength {
		return []types.Location{}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.WarnContext(ctx, "location search not sent", "error", err)
		return []types.Location{}
	}

	start := time.Now()
	places, err := c.search(ctx, query)
	record(ctx, c.recorder, types.ProviderGeocoder, start, err)
	if err != nil {
		c.logger.WarnContext(ctx, "location search failed", "query", query, "error", err)
		return []types.Location{}
	}

	out := make([]types.Location, 0, len(places))
	for _, p := range places {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(p.Lat), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(p.Lon), 64)
		if latErr != nil || lonErr != nil {
			c.logger.WarnContext(ctx, "skipping place with bad coordinates",
				"display_name", p.DisplayName, "lat", p.Lat, "lon", p.Lon)
			continue
		}
		out = append(out, types.Location{
			Name:      formatPlaceName(p),
			Latitude:  lat,
			Longitude: lon,
		})
	}

	c.logger.InfoContext(ctx, "location search complete", "query", query, "results", len(out))
	return out
}

func (c *LocationClient) search(ctx context.Context, query string) ([]nominatimPlace, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(maxCandidates))
	params.Set("addressdetails", "1")
	params.Set("countrycodes", "us")
	if postalCodePattern.MatchString(query) {
		params.Set("postalcode", query)
	} else {
		params.Set("q", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create search request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeUpstreamGeocoder,
			"geocoder returned "+resp.Status, nil, map[string]any{"status": resp.StatusCode})
	}

	var places []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxSearchBodyBytes)).Decode(&places); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamGeocoder, "geocoder response is not a list", err)
	}
	if len(places) > maxCandidates {
		places = places[:maxCandidates]
	}
	return places, nil
}

// formatPlaceName prefers "City, State" and falls back to the first two
// comma-separated parts of the display name.
func formatPlaceName(p nominatimPlace) string {
	a := p.Address
	city := firstNonEmpty(a.City, a.Town, a.Village, a.Municipality)
	if city != "" && a.State != "" {
		return city + ", " + a.State
	}
	if p.DisplayName != "" {
		parts := strings.Split(p.DisplayName, ",")
		if len(parts) > 2 {
			parts = parts[:2]
		}
		return strings.Join(parts, ",")
	}
	return unknownLocationName
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

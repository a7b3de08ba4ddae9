package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcast/internal/types"
)

var newYork = types.Location{Name: "New York, NY, United States", Latitude: 40.7128, Longitude: -74.006}

const twoDayTimeline = `{
  "resolvedAddress": "40.7128,-74.006",
  "days": [
    {"datetime": "2024-06-07", "hours": [
      {"datetime": "12:00:00", "temp": 72.5, "feelslike": 73, "humidity": 55, "windspeed": 6.1, "conditions": "Clear", "precipprob": 10, "uvindex": 7},
      {"datetime": "13:00:00", "temp": 74, "feelslike": 74, "humidity": 50, "windspeed": 7, "conditions": "Partially cloudy", "precipprob": null, "uvindex": 8}
    ]},
    {"datetime": "2024-06-08", "hours": [
      {"datetime": "09:00:00", "temp": 65, "windspeed": 3, "precipprob": 40, "uvindex": 3}
    ]}
  ]
}`

func newTestWeatherClient(serverURL string, recorder UpstreamRecorder) *WeatherClient {
	base := NewBaseClient(&http.Client{Timeout: 5 * time.Second}, "test-weather", fastPolicy(1), "EventCast-Test/1.0",
		WithSleepFunc(noopSleep), WithUnavailableCode(types.ErrCodeUpstreamWeather))
	return NewWeatherClientWithBase(base, WeatherClientConfig{
		APIKey:   types.SecretString("vc-test-key"),
		BaseURL:  serverURL,
		Recorder: recorder,
	})
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []error
	names []string
}

func (f *fakeRecorder) RecordUpstream(_ context.Context, provider string, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, provider)
	f.calls = append(f.calls, err)
}

func TestFetchForecast_Success(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"key":         r.URL.Query().Get("key"),
			"unitGroup":   r.URL.Query().Get("unitGroup"),
			"include":     r.URL.Query().Get("include"),
			"contentType": r.URL.Query().Get("contentType"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(twoDayTimeline))
	}))
	defer server.Close()

	rec := &fakeRecorder{}
	obs, err := newTestWeatherClient(server.URL, rec).FetchForecast(context.Background(), newYork, "2024-06-07", "2024-06-08")
	require.NoError(t, err)

	assert.Equal(t, "/40.7128,-74.006/2024-06-07/2024-06-08", gotPath)
	assert.Equal(t, map[string]string{
		"key":         "vc-test-key",
		"unitGroup":   "us",
		"include":     "hours",
		"contentType": "json",
	}, gotQuery)

	require.Len(t, obs, 3)
	assert.Equal(t, types.HourlyObservation{
		Time:                        "2024-06-07T12:00:00",
		TemperatureF:                72.5,
		FeelsLikeF:                  73,
		HumidityPct:                 55,
		WindSpeedMph:                6.1,
		Conditions:                  "Clear",
		PrecipitationProbabilityPct: 10,
		UVIndex:                     7,
	}, obs[0])
	assert.Equal(t, "2024-06-07T13:00:00", obs[1].Time)
	assert.Zero(t, obs[1].PrecipitationProbabilityPct, "null precipprob becomes 0")
	assert.Equal(t, "2024-06-08T09:00:00", obs[2].Time)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, types.ProviderWeather, rec.names[0])
	assert.NoError(t, rec.calls[0])
}

func TestFetchForecast_EmptyDays(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"days": []}`))
	}))
	defer server.Close()

	obs, err := newTestWeatherClient(server.URL, nil).FetchForecast(context.Background(), newYork, "2024-06-07", "2024-06-07")
	require.NoError(t, err)
	assert.NotNil(t, obs)
	assert.Empty(t, obs)
}

func TestFetchForecast_DayWithoutHours(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"days": [{"datetime": "2024-06-07"}]}`))
	}))
	defer server.Close()

	obs, err := newTestWeatherClient(server.URL, nil).FetchForecast(context.Background(), newYork, "2024-06-07", "2024-06-07")
	require.NoError(t, err)
	assert.Empty(t, obs)
}

func TestFetchForecast_FormatErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing days", `{"resolvedAddress": "somewhere"}`},
		{"null days", `{"days": null}`},
		{"not json", `<html>oops</html>`},
		{"days wrong type", `{"days": "soon"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestWeatherClient(server.URL, nil).FetchForecast(context.Background(), newYork, "2024-06-07", "2024-06-07")
			requireAppError(t, err, types.ErrCodeUpstreamWeatherFormat)

			kind, ok := types.FetchErrorKindOf(err)
			require.True(t, ok)
			assert.Equal(t, types.FetchUpstreamFormat, kind)
		})
	}
}

func TestFetchForecast_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("No account found with API key"))
	}))
	defer server.Close()

	_, err := newTestWeatherClient(server.URL, nil).FetchForecast(context.Background(), newYork, "2024-06-07", "2024-06-07")
	appErr := requireAppError(t, err, types.ErrCodeUpstreamWeatherUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, appErr.Details["status"])
	assert.Equal(t, int32(1), calls.Load())

	kind, _ := types.FetchErrorKindOf(err)
	assert.Equal(t, types.FetchNetworkFailure, kind)
}

func TestFetchForecast_ServerErrorIsNetworkFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	rec := &fakeRecorder{}
	_, err := newTestWeatherClient(server.URL, rec).FetchForecast(context.Background(), newYork, "2024-06-07", "2024-06-07")
	requireAppError(t, err, types.ErrCodeUpstreamWeather)
	assert.True(t, types.IsFetchError(err))
	assert.Equal(t, int32(2), calls.Load(), "one retry")

	require.Len(t, rec.calls, 1)
	assert.Error(t, rec.calls[0])
}

func TestFetchForecast_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestWeatherClient(url, nil).FetchForecast(context.Background(), newYork, "2024-06-07", "2024-06-07")
	kind, ok := types.FetchErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, types.FetchNetworkFailure, kind)
}

func TestFetchForecast_ValidatesBeforeCalling(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()
	client := newTestWeatherClient(server.URL, nil)

	_, err := client.FetchForecast(context.Background(), newYork, "06/07/2024", "2024-06-07")
	requireAppError(t, err, types.ErrCodeValidationInvalidDate)

	_, err = client.FetchForecast(context.Background(), newYork, "2024-06-08", "2024-06-07")
	requireAppError(t, err, types.ErrCodeValidationDateRange)

	_, err = client.FetchForecast(context.Background(), types.Location{Latitude: 91}, "2024-06-07", "2024-06-07")
	requireAppError(t, err, types.ErrCodeValidationInvalidLat)
	assert.False(t, types.IsFetchError(err))

	assert.Zero(t, calls.Load())
}

func TestFetchForecast_KeyNeverLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := newTestWeatherClient(server.URL, nil).FetchForecast(context.Background(), newYork, "2024-06-07", "2024-06-07")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "vc-test-key")

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Nil(t, appErr.Err)
}

func TestValidateDateRange(t *testing.T) {
	assert.NoError(t, ValidateDateRange("2024-02-28", "2024-02-29"))
	assert.NoError(t, ValidateDateRange("2024-06-07", "2024-06-07"))
	assert.Error(t, ValidateDateRange("2023-02-29", "2023-03-01"))
	assert.Error(t, ValidateDateRange("2024-06-07", ""))
}

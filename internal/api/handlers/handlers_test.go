package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"eventcast/internal/core"
	"eventcast/internal/types"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// wednesday is 2024-06-05 10:30 UTC.
var wednesday = time.Date(2024, 6, 5, 10, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testValidator() *core.Validator {
	return core.NewValidator(discardLogger())
}

// router mounts registrars under /v1 the way the server does.
func router(registrars ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Route("/v1", func(v1 chi.Router) {
		for _, reg := range registrars {
			reg(v1)
		}
	})
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, rdr))
	return w
}

// decodeData unmarshals the success envelope's data into dst.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env core.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Error.Code
}

func hourAt(date string, h int, temp, precip, wind, uv float64) types.HourlyObservation {
	return types.HourlyObservation{
		Time:                        date + "T" + time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format("15:04:05"),
		TemperatureF:                temp,
		PrecipitationProbabilityPct: precip,
		WindSpeedMph:                wind,
		UVIndex:                     uv,
	}
}

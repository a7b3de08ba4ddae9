package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcast/internal/planner"
	"eventcast/internal/types"
)

type outlookCall struct {
	loc types.Location
	day time.Weekday
	now time.Time
}

type stubBuilder struct {
	err   error
	calls []outlookCall
}

func (b *stubBuilder) OutlookAt(_ context.Context, loc types.Location, day time.Weekday, now time.Time) (*planner.Outlook, error) {
	b.calls = append(b.calls, outlookCall{loc, day, now})
	if b.err != nil {
		return nil, b.err
	}
	this, next := planner.TargetDates(now, day)
	return &planner.Outlook{
		Location: loc,
		Day:      day.String(),
		This:     planner.Panel{Title: "This " + day.String(), Date: this.Format(types.DateLayout), Status: planner.PanelEmpty, Observations: []types.HourlyObservation{}},
		Next:     planner.Panel{Title: "Next " + day.String(), Date: next.Format(types.DateLayout), Status: planner.PanelEmpty, Observations: []types.HourlyObservation{}},
	}, nil
}

func outlookRouter(b OutlookBuilder) http.Handler {
	return router(NewOutlookHandler(b, testValidator(), fixedClock{wednesday}, discardLogger()).RegisterRoutes)
}

func TestHandleGetOutlook_Defaults(t *testing.T) {
	b := &stubBuilder{}

	w := do(t, outlookRouter(b), http.MethodGet, "/v1/outlook", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, b.calls, 1)
	assert.Equal(t, planner.DefaultLocation, b.calls[0].loc)
	assert.Equal(t, time.Friday, b.calls[0].day)
	assert.Equal(t, wednesday, b.calls[0].now)

	var got planner.Outlook
	decodeData(t, w, &got)
	assert.Equal(t, "This Friday", got.This.Title)
	assert.Equal(t, "2024-06-07", got.This.Date)
	assert.Equal(t, "2024-06-14", got.Next.Date)
}

func TestHandleGetOutlook_ExplicitSelection(t *testing.T) {
	b := &stubBuilder{}

	w := do(t, outlookRouter(b), http.MethodGet, "/v1/outlook?lat=42.3601&lon=-71.0589&name=Boston,%20Massachusetts&day=SAT", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.Location{Name: "Boston, Massachusetts", Latitude: 42.3601, Longitude: -71.0589}, b.calls[0].loc)
	assert.Equal(t, time.Saturday, b.calls[0].day)
}

func TestHandleGetOutlook_TimeZone(t *testing.T) {
	b := &stubBuilder{}

	// Same instant, viewed in the requested zone.
	w := do(t, outlookRouter(b), http.MethodGet, "/v1/outlook?day=wednesday&tz=America/Los_Angeles", "")

	require.Equal(t, http.StatusOK, w.Code)
	now := b.calls[0].now
	assert.Equal(t, "America/Los_Angeles", now.Location().String())
	assert.True(t, now.Equal(wednesday))
}

func TestHandleGetOutlook_BadInput(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  types.ErrorCode
	}{
		{"lat without lon", "lat=40", types.ErrCodeValidationMissingField},
		{"bad lat", "lat=abc&lon=1", types.ErrCodeValidationInvalidLat},
		{"lat out of range", "lat=-91&lon=1", types.ErrCodeValidationInvalidLat},
		{"bad day", "day=funday", types.ErrCodeValidationInvalidDay},
		{"bad zone", "tz=Nowhere/Special", types.ErrCodeValidationInvalidTimezone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &stubBuilder{}
			w := do(t, outlookRouter(b), http.MethodGet, "/v1/outlook?"+tt.query, "")

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, string(tt.code), errorCode(t, w))
			assert.Empty(t, b.calls)
		})
	}
}

func TestHandleGetOutlook_Timeout(t *testing.T) {
	w := do(t, outlookRouter(&stubBuilder{err: context.DeadlineExceeded}), http.MethodGet, "/v1/outlook", "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, string(types.ErrCodeUpstreamWeather), errorCode(t, w))
}

func TestHandleGetOutlook_WithPlanner(t *testing.T) {
	f := &stubFetcher{obs: []types.HourlyObservation{hourAt("2024-06-07", 12, 20, 0, 5, 2)}}
	p := planner.NewPlanner(f, nil, discardLogger(), fixedClock{wednesday})

	w := do(t, outlookRouter(p), http.MethodGet, "/v1/outlook?day=friday", "")

	require.Equal(t, http.StatusOK, w.Code)
	var got planner.Outlook
	decodeData(t, w, &got)
	assert.Equal(t, planner.PanelReady, got.This.Status)
	require.NotNil(t, got.This.Score)
	assert.Equal(t, 70, got.This.Score.Score)
	// The stub returns Friday's hours for every request; the next panel
	// keeps only its own date.
	assert.Equal(t, planner.PanelEmpty, got.Next.Status)
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"eventcast/internal/core"
	"eventcast/internal/planner"
	"eventcast/internal/types"
)

// outlookQuery is the validated form of GET /v1/outlook.
type outlookQuery struct {
	Lat float64 `query:"lat" validate:"latitude"`
	Lon float64 `query:"lon" validate:"longitude"`
	Day string  `query:"day" validate:"required,weekday"`
	TZ  string  `query:"tz" validate:"omitempty,is_timezone"`
}

// OutlookBuilder produces the this/next comparison for a weekday.
type OutlookBuilder interface {
	OutlookAt(ctx context.Context, loc types.Location, day time.Weekday, now time.Time) (*planner.Outlook, error)
}

// OutlookHandler serves the side-by-side comparison of this and next
// occurrence of a weekday.
type OutlookHandler struct {
	builder   OutlookBuilder
	validator *core.Validator
	clock     types.Clock
	logger    *slog.Logger
}

// NewOutlookHandler wires an OutlookHandler. A nil clock means UTC wall time.
func NewOutlookHandler(builder OutlookBuilder, val *core.Validator, clock types.Clock, logger *slog.Logger) *OutlookHandler {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutlookHandler{builder: builder, validator: val, clock: clock, logger: logger}
}

// RegisterRoutes mounts GET /outlook.
func (h *OutlookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/outlook", h.HandleGetOutlook)
}

// HandleGetOutlook handles GET /v1/outlook?lat=&lon=&name=&day=&tz=.
//
// Without lat and lon the default location (New York) is used; day
// defaults to Friday. tz picks the calendar used to resolve "this" and
// "next"; the default is UTC. A failed panel is reported inside a 200
// response, since the other panel may still be useful.
func (h *OutlookHandler) HandleGetOutlook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	loc := planner.DefaultLocation
	if q.Has("lat") || q.Has("lon") {
		lat, lon, err := parseCoordinates(q)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		loc = types.Location{Name: strings.TrimSpace(q.Get("name")), Latitude: lat, Longitude: lon}
	}

	req := outlookQuery{
		Lat: loc.Latitude,
		Lon: loc.Longitude,
		Day: q.Get("day"),
		TZ:  q.Get("tz"),
	}
	if req.Day == "" {
		req.Day = planner.DefaultDay.String()
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	day, err := planner.ParseWeekday(req.Day)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	now := h.clock.Now()
	if req.TZ != "" {
		zone, err := time.LoadLocation(req.TZ)
		if err != nil {
			core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidTimezone, "tz must be an IANA time zone", err))
			return
		}
		now = now.In(zone)
	}

	h.logger.DebugContext(r.Context(), "building outlook",
		"location", loc.Name,
		"day", day.String(),
		"now", now.Format(time.RFC3339),
	)
	out, err := h.builder.OutlookAt(r.Context(), loc, day, now)
	if errors.Is(err, context.DeadlineExceeded) {
		err = types.NewAppError(types.ErrCodeUpstreamWeather, "timed out waiting for the weather service", err)
	}
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.Data(w, r, http.StatusOK, out)
}

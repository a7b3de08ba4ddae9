package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventcast/internal/core"
	"eventcast/internal/types"
)

// forecastQuery is the validated form of GET /v1/forecast.
type forecastQuery struct {
	Lat   float64 `query:"lat" validate:"latitude"`
	Lon   float64 `query:"lon" validate:"longitude"`
	Start string  `query:"start" validate:"required,iso_date"`
	End   string  `query:"end" validate:"required,iso_date"`
}

// ForecastHandler serves raw hourly observations.
type ForecastHandler struct {
	fetcher   types.ForecastFetcher
	validator *core.Validator
	clock     types.Clock
	logger    *slog.Logger
}

// NewForecastHandler wires a ForecastHandler. A nil clock means UTC wall time.
func NewForecastHandler(fetcher types.ForecastFetcher, val *core.Validator, clock types.Clock, logger *slog.Logger) *ForecastHandler {
	if clock == nil {
		clock = types.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastHandler{fetcher: fetcher, validator: val, clock: clock, logger: logger}
}

// RegisterRoutes mounts GET /forecast.
func (h *ForecastHandler) RegisterRoutes(r chi.Router) {
	r.Get("/forecast", h.HandleGetForecast)
}

// HandleGetForecast handles GET /v1/forecast?lat=&lon=&start=&end=.
// start and end default to today (UTC). Upstream failures are returned as
// 502 with the fetch error code.
func (h *ForecastHandler) HandleGetForecast(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, lon, err := parseCoordinates(q)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	today := h.clock.Now().Format(types.DateLayout)
	req := forecastQuery{Lat: lat, Lon: lon, Start: q.Get("start"), End: q.Get("end")}
	if req.Start == "" {
		req.Start = today
	}
	if req.End == "" {
		req.End = req.Start
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	loc := types.Location{Name: q.Get("name"), Latitude: lat, Longitude: lon}
	obs, err := h.fetcher.FetchForecast(r.Context(), loc, req.Start, req.End)
	if err != nil {
		h.logger.WarnContext(r.Context(), "forecast request failed",
			"start", req.Start,
			"end", req.End,
			"error", err,
		)
		core.Error(w, r, err)
		return
	}
	if obs == nil {
		obs = []types.HourlyObservation{}
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	core.Data(w, r, http.StatusOK, obs)
}

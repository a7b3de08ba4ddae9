package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventcast/internal/core"
	"eventcast/internal/types"
)

// LocationHandler serves location search. It never fails: upstream trouble
// shows up as an empty candidate list.
type LocationHandler struct {
	searcher types.LocationSearcher
}

// NewLocationHandler wires a LocationHandler.
func NewLocationHandler(searcher types.LocationSearcher) *LocationHandler {
	return &LocationHandler{searcher: searcher}
}

// RegisterRoutes mounts GET /locations.
func (h *LocationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/locations", h.HandleSearch)
}

// HandleSearch handles GET /v1/locations?q=.
func (h *LocationHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	results := h.searcher.SearchLocations(r.Context(), r.URL.Query().Get("q"))
	if results == nil {
		results = []types.Location{}
	}
	core.Data(w, r, http.StatusOK, results)
}

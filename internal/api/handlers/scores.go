package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eventcast/internal/core"
	"eventcast/internal/planner"
	"eventcast/internal/scoring"
	"eventcast/internal/types"
)

// ScoreRequest is the body of POST /v1/scores and /v1/scores/daily. At
// most a month of hourly data is accepted.
type ScoreRequest struct {
	Observations []types.HourlyObservation `json:"observations" validate:"max=744,dive"`
}

// DayScorer scores observations grouped by date.
type DayScorer interface {
	ScoreDays(ctx context.Context, obs []types.HourlyObservation) []planner.DailyScore
}

// ScoreHandler exposes the scoring engine directly.
type ScoreHandler struct {
	days      DayScorer
	recorder  planner.ScoreRecorder
	validator *core.Validator
}

// NewScoreHandler wires a ScoreHandler. recorder may be nil.
func NewScoreHandler(days DayScorer, recorder planner.ScoreRecorder, val *core.Validator) *ScoreHandler {
	return &ScoreHandler{days: days, recorder: recorder, validator: val}
}

// RegisterRoutes mounts the scoring endpoints.
func (h *ScoreHandler) RegisterRoutes(r chi.Router) {
	r.Post("/scores", h.HandleScore)
	r.Post("/scores/daily", h.HandleScoreDaily)
	r.Get("/rules", h.HandleListRules)
}

// HandleScore handles POST /v1/scores. Input with no daytime hours yields
// the no-data score, not an error, and is not recorded as a score.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	stats, ok := scoring.ComputeDayStats(req.Observations)
	if !ok {
		core.Data(w, r, http.StatusOK, scoring.NoDataScore())
		return
	}

	score := scoring.ScoreStats(stats)
	if h.recorder != nil {
		h.recorder.RecordScore(r.Context(), score.Score)
	}
	core.Data(w, r, http.StatusOK, score)
}

// HandleScoreDaily handles POST /v1/scores/daily: one score per calendar
// date present in the input, sorted by date.
func (h *ScoreHandler) HandleScoreDaily(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	core.Data(w, r, http.StatusOK, h.days.ScoreDays(r.Context(), req.Observations))
}

func (h *ScoreHandler) decode(w http.ResponseWriter, r *http.Request) (ScoreRequest, bool) {
	var req ScoreRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return req, false
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return req, false
	}
	return req, true
}

// ruleView is the wire form of one scoring rule.
type ruleView struct {
	Name            string                 `json:"name"`
	Delta           int                    `json:"delta"`
	Condition       string                 `json:"condition,omitempty"`
	Recommendations []types.Recommendation `json:"recommendations"`
}

type ruleGroupView struct {
	Name      string     `json:"name"`
	Exclusive bool       `json:"exclusive"`
	Rules     []ruleView `json:"rules"`
}

// HandleListRules handles GET /v1/rules: the rule table in evaluation order.
func (h *ScoreHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	groups := scoring.Rules()
	out := make([]ruleGroupView, 0, len(groups))
	for _, g := range groups {
		view := ruleGroupView{Name: g.Name, Exclusive: g.Exclusive, Rules: make([]ruleView, 0, len(g.Rules))}
		for _, rule := range g.Rules {
			recs := rule.Recommendations
			if recs == nil {
				recs = []types.Recommendation{}
			}
			view.Rules = append(view.Rules, ruleView{
				Name:            rule.Name,
				Delta:           rule.Delta,
				Condition:       rule.Condition,
				Recommendations: recs,
			})
		}
		out = append(out, view)
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	core.Data(w, r, http.StatusOK, out)
}

// Package planner turns a location and a weekday into a side-by-side
// outlook: the upcoming occurrence of that weekday and the one a week later,
// each with its hourly forecast and event score.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"eventcast/internal/scoring"
	"eventcast/internal/types"
)

// DefaultLocation is used when no location has been chosen.
var DefaultLocation = types.Location{
	Name:      "New York, NY, United States",
	Latitude:  40.7128,
	Longitude: -74.0060,
}

// DefaultDay is used when no weekday has been chosen.
const DefaultDay = time.Friday

// PanelStatus describes what a panel can show.
type PanelStatus string

const (
	PanelLoading PanelStatus = "loading"
	PanelReady   PanelStatus = "ready"
	// PanelEmpty means the provider answered with no hours for the date.
	PanelEmpty PanelStatus = "empty"
	// PanelFailed means the fetch failed. The panel carries no data.
	PanelFailed PanelStatus = "failed"
)

// Panel is one day's column in the outlook.
type Panel struct {
	Title        string                    `json:"title"`
	Date         string                    `json:"date"`
	Status       PanelStatus               `json:"status"`
	Observations []types.HourlyObservation `json:"observations"`
	Score        *types.EventScore         `json:"score,omitempty"`
	ErrorCode    types.ErrorCode           `json:"error_code,omitempty"`
}

// Outlook compares the selected weekday this week and next week.
type Outlook struct {
	Location types.Location `json:"location"`
	Day      string         `json:"day"`
	This     Panel          `json:"this"`
	Next     Panel          `json:"next"`
}

// DailyScore is the score of one calendar date.
type DailyScore struct {
	Date  string           `json:"date"`
	Hours int              `json:"hours"`
	Score types.EventScore `json:"score"`
}

// ScoreRecorder receives every score the planner computes.
type ScoreRecorder interface {
	RecordScore(ctx context.Context, score int)
}

// Planner fetches and scores outlooks. It holds no per-request state and is
// safe for concurrent use.
type Planner struct {
	fetcher  types.ForecastFetcher
	recorder ScoreRecorder
	logger   *slog.Logger
	clock    types.Clock
}

// NewPlanner creates a Planner. recorder may be nil.
func NewPlanner(fetcher types.ForecastFetcher, recorder ScoreRecorder, logger *slog.Logger, clock types.Clock) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Planner{
		fetcher:  fetcher,
		recorder: recorder,
		logger:   logger,
		clock:    clock,
	}
}

// ParseWeekday accepts a full or three-letter English weekday name in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, types.NewAppErrorWithDetails(
		types.ErrCodeValidationInvalidDay,
		fmt.Sprintf("%q is not a day of the week", s),
		nil,
		map[string]any{"day": s},
	)
}

// TargetDates returns the next occurrence of day on or after now's calendar
// date, and the same weekday seven days later. Both are midnight in now's
// location.
func TargetDates(now time.Time, day time.Weekday) (this, next time.Time) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	ahead := (int(day) - int(today.Weekday()) + 7) % 7
	this = today.AddDate(0, 0, ahead)
	return this, this.AddDate(0, 0, 7)
}

// Outlook builds the outlook for day as seen from the planner's clock (UTC).
func (p *Planner) Outlook(ctx context.Context, loc types.Location, day time.Weekday) (*Outlook, error) {
	return p.OutlookAt(ctx, loc, day, p.clock.Now())
}

// OutlookAt builds the outlook for day relative to now. The two forecast
// fetches run in parallel and fail independently: a failed fetch yields a
// failed panel, never an error from OutlookAt. Only invalid input or a
// cancelled context is returned as an error.
func (p *Planner) OutlookAt(ctx context.Context, loc types.Location, day time.Weekday, now time.Time) (*Outlook, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	thisDate, nextDate := TargetDates(now, day)
	out := &Outlook{
		Location: loc,
		Day:      day.String(),
		This:     newPanel("This "+day.String(), thisDate),
		Next:     newPanel("Next "+day.String(), nextDate),
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, panel := range []*Panel{&out.This, &out.Next} {
		g.Go(func() error {
			p.fill(gCtx, loc, panel)
			// Fetch failures stay in the panel; only cancellation fails the outlook.
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "outlook built",
		"location", loc.Name,
		"day", out.Day,
		"this_status", string(out.This.Status),
		"next_status", string(out.Next.Status),
	)
	return out, nil
}

func newPanel(title string, date time.Time) Panel {
	return Panel{
		Title:        title,
		Date:         date.Format(types.DateLayout),
		Status:       PanelLoading,
		Observations: []types.HourlyObservation{},
	}
}

// fill fetches one panel's date and scores it when there is data.
func (p *Planner) fill(ctx context.Context, loc types.Location, panel *Panel) {
	obs, err := p.fetcher.FetchForecast(ctx, loc, panel.Date, panel.Date)
	if err != nil {
		p.logger.WarnContext(ctx, "forecast fetch failed",
			"panel", panel.Title,
			"date", panel.Date,
			"error", err,
		)
		panel.Status = PanelFailed
		panel.Observations = []types.HourlyObservation{}
		panel.ErrorCode = errorCode(err)
		return
	}

	panel.Observations = OnDate(obs, panel.Date)
	if len(panel.Observations) == 0 {
		panel.Status = PanelEmpty
		return
	}

	score := p.score(ctx, panel.Observations)
	panel.Score = &score
	panel.Status = PanelReady
}

// ScoreDays groups observations by calendar date and scores each date with
// at least one observation. Results are sorted by date. Observations without
// a parseable date are ignored.
func (p *Planner) ScoreDays(ctx context.Context, obs []types.HourlyObservation) []DailyScore {
	byDate := make(map[string][]types.HourlyObservation)
	for _, o := range obs {
		date := o.Date()
		if date == "" {
			continue
		}
		byDate[date] = append(byDate[date], o)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]DailyScore, 0, len(dates))
	for _, d := range dates {
		score := p.score(ctx, byDate[d])
		out = append(out, DailyScore{Date: d, Hours: len(byDate[d]), Score: score})
	}
	return out
}

// OnDate returns the observations whose timestamp falls on date.
func OnDate(obs []types.HourlyObservation, date string) []types.HourlyObservation {
	out := make([]types.HourlyObservation, 0, len(obs))
	for _, o := range obs {
		if o.Date() == date {
			out = append(out, o)
		}
	}
	return out
}

// score runs the engine on one day. The no-data result is not recorded.
func (p *Planner) score(ctx context.Context, obs []types.HourlyObservation) types.EventScore {
	stats, ok := scoring.ComputeDayStats(obs)
	if !ok {
		return scoring.NoDataScore()
	}
	score := scoring.ScoreStats(stats)
	if p.recorder != nil {
		p.recorder.RecordScore(ctx, score.Score)
	}
	return score
}

func errorCode(err error) types.ErrorCode {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.ErrCodeUpstreamWeather
	}
	return types.ErrCodeInternalUnexpected
}

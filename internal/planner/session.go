package planner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"eventcast/internal/types"
)

// StaleRecorder is told whenever a superseded result is thrown away.
type StaleRecorder interface {
	RecordStaleDiscard(ctx context.Context)
}

// SessionState is a point-in-time copy of a Session.
type SessionState struct {
	Location   types.Location `json:"location"`
	Day        string         `json:"day"`
	Generation uint64         `json:"generation"`
	This       Panel          `json:"this"`
	Next       Panel          `json:"next"`
}

// Session holds one user's selection and the panels derived from it.
// Selections may overlap; the most recent one always wins. Each Select
// cancels the fetches of the selection it replaces, and any result that
// still arrives for an older generation is discarded.
//
// Session is the embedding API for an in-process front end that keeps one
// selection per user. The stateless HTTP API does not hold sessions; each
// GET /v1/outlook is answered by Planner directly.
type Session struct {
	planner *Planner
	stale   StaleRecorder
	logger  *slog.Logger

	// OnChange, when set, is called with a fresh snapshot after every state
	// transition. It runs without the session lock held.
	OnChange func(SessionState)

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	location   types.Location
	day        time.Weekday
	this       Panel
	next       Panel
	discarded  int
}

// NewSession creates a session with the default selection and empty panels.
// stale may be nil.
func NewSession(p *Planner, stale StaleRecorder, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		planner:  p,
		stale:    stale,
		logger:   logger,
		location: DefaultLocation,
		day:      DefaultDay,
		this:     Panel{Observations: []types.HourlyObservation{}},
		next:     Panel{Observations: []types.HourlyObservation{}},
	}
}

// Select changes the selection and refreshes both panels. The panels are
// cleared and marked loading before the fetch starts, so data for the old
// selection is never shown as if it belonged to the new one.
//
// Select blocks until its own refresh completes. It returns false if a
// newer selection superseded it, in which case nothing was applied.
func (s *Session) Select(ctx context.Context, loc types.Location, day time.Weekday) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.location = loc
	s.day = day
	thisDate, nextDate := TargetDates(s.planner.clock.Now(), day)
	s.this = newPanel("This "+day.String(), thisDate)
	s.next = newPanel("Next "+day.String(), nextDate)
	s.mu.Unlock()
	s.notify()

	outlook, err := s.planner.Outlook(ctx, loc, day)

	s.mu.Lock()
	if gen != s.generation {
		s.discarded++
		s.mu.Unlock()
		s.logger.InfoContext(ctx, "discarding stale outlook", "generation", gen)
		if s.stale != nil {
			s.stale.RecordStaleDiscard(context.WithoutCancel(ctx))
		}
		return false, nil
	}
	s.cancel = nil
	if err != nil {
		s.this = failedPanel(s.this, err)
		s.next = failedPanel(s.next, err)
	} else {
		s.this = outlook.This
		s.next = outlook.Next
	}
	s.mu.Unlock()
	s.notify()

	return true, err
}

// Refresh re-runs the current selection.
func (s *Session) Refresh(ctx context.Context) (bool, error) {
	s.mu.Lock()
	loc, day := s.location, s.day
	s.mu.Unlock()
	return s.Select(ctx, loc, day)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Location:   s.location,
		Day:        s.day.String(),
		Generation: s.generation,
		This:       copyPanel(s.this),
		Next:       copyPanel(s.next),
	}
}

// Discarded returns how many stale results have been thrown away.
func (s *Session) Discarded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded
}

func (s *Session) notify() {
	if s.OnChange != nil {
		s.OnChange(s.Snapshot())
	}
}

func failedPanel(p Panel, err error) Panel {
	p.Status = PanelFailed
	p.Observations = []types.HourlyObservation{}
	p.Score = nil
	p.ErrorCode = errorCode(err)
	return p
}

func copyPanel(p Panel) Panel {
	out := p
	out.Observations = append([]types.HourlyObservation{}, p.Observations...)
	if p.Score != nil {
		score := *p.Score
		score.Conditions = append([]string{}, p.Score.Conditions...)
		score.Recommendations = append([]types.Recommendation{}, p.Score.Recommendations...)
		out.Score = &score
	}
	return out
}

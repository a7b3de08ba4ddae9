package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// healthCheckTimeout bounds the whole probe run.
const healthCheckTimeout = 2 * time.Second

// HealthProbe checks one dependency.
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

// BreakerStater is implemented by upstream clients that guard calls with a
// circuit breaker.
type BreakerStater interface {
	BreakerState() gobreaker.State
}

// BreakerProbe reports a dependency unhealthy while its breaker is open. It
// never makes a network call, so probing cannot add load to a struggling
// upstream.
type BreakerProbe struct {
	name    string
	breaker BreakerStater
}

// NewBreakerProbe names a probe over b.
func NewBreakerProbe(name string, b BreakerStater) *BreakerProbe {
	return &BreakerProbe{name: name, breaker: b}
}

func (p *BreakerProbe) Name() string { return p.name }

func (p *BreakerProbe) Check(context.Context) error {
	if st := p.breaker.BreakerState(); st == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker %s", st)
	}
	return nil
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandleHealth runs every probe concurrently. It answers 200 when all pass
// and 503 when any fails, panics or misses the deadline.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "healthy"}
	if s.Config != nil {
		resp.Version = s.Config.Build.Version
	}

	if len(s.HealthProbes) == 0 {
		JSON(w, r, http.StatusOK, resp)
		return
	}

	type result struct {
		idx int
		err error
	}
	results := make(chan result, len(s.HealthProbes))
	for i, p := range s.HealthProbes {
		go func() {
			results <- result{idx: i, err: runProbe(ctx, p)}
		}()
	}

	errs := make([]error, len(s.HealthProbes))
	done := make([]bool, len(s.HealthProbes))
collect:
	for range s.HealthProbes {
		select {
		case res := <-results:
			errs[res.idx] = res.err
			done[res.idx] = true
		case <-ctx.Done():
			break collect
		}
	}

	resp.Components = make(map[string]componentStatus, len(s.HealthProbes))
	for i, p := range s.HealthProbes {
		switch {
		case !done[i]:
			resp.Components[p.Name()] = componentStatus{Status: "unhealthy", Message: "health check timed out"}
		case errs[i] != nil:
			resp.Components[p.Name()] = componentStatus{Status: "unhealthy", Message: errs[i].Error()}
		default:
			resp.Components[p.Name()] = componentStatus{Status: "healthy"}
			continue
		}
		resp.Status = "unhealthy"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	JSON(w, r, status, resp)
}

func runProbe(ctx context.Context, p HealthProbe) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			err = fmt.Errorf("probe panicked: %v", rvr)
		}
	}()
	return p.Check(ctx)
}

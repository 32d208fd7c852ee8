// Package health serves liveness and readiness probes backed by periodic
// background checks. A check flips to unhealthy only after three consecutive
// failures and back to healthy after one success.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	failureThreshold = 3
	successThreshold = 1
)

// CheckFunc returns nil when the checked dependency is healthy.
type CheckFunc func(ctx context.Context) error

// probe is one registered check. fails and oks are only touched by the
// goroutine running the probe; healthy and lastErr are read by handlers.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	p := &probe{name: name, timeout: timeout, check: check}
	p.healthy.Store(true)
	return p
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.oks = 0
		p.fails++
		if p.fails >= failureThreshold {
			p.healthy.Store(false)
		}
		return
	}

	p.fails = 0
	p.oks++
	if p.oks >= successThreshold {
		p.healthy.Store(true)
	}
}

func (p *probe) failure() string {
	if errp := p.lastErr.Load(); errp != nil && *errp != nil {
		return (*errp).Error()
	}
	return "check is unhealthy"
}

// Health tracks liveness and readiness. It starts not ready; call
// SetReady(true) once startup has finished.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	live   []*probe
	readyz []*probe
	cancel context.CancelFunc
}

// New creates a Health with no checks.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that gates /livez.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a check that gates /readyz.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readyz = append(h.readyz, newProbe(name, timeout, check))
}

// Start runs every registered check once immediately and then every
// interval, each in its own goroutine, until Stop or ctx cancellation.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := append(append([]*probe{}, h.live...), h.readyz...)
	h.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.run(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels the check goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady marks the service ready or draining.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the service is marked ready and every readiness
// check passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	return len(failures(h.snapshot(false))) == 0
}

func (h *Health) snapshot(live bool) []*probe {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if live {
		return append([]*probe{}, h.live...)
	}
	return append([]*probe{}, h.readyz...)
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failures(h.snapshot(true)))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failed := failures(h.snapshot(false))
	if !h.ready.Load() {
		failed["_readiness"] = "service is not ready"
	}
	writeStatus(w, failed)
}

func failures(probes []*probe) map[string]string {
	failed := make(map[string]string)
	for _, p := range probes {
		if !p.healthy.Load() {
			failed[p.name] = p.failure()
		}
	}
	return failed
}

func writeStatus(w http.ResponseWriter, failed map[string]string) {
	resp := statusResponse{Status: "ok"}
	status := http.StatusOK
	if len(failed) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failed
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

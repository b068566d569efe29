package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/opencode-htop/octop/internal/session"
)

// failureThreshold is the number of consecutive failures before a source
// is reported as down. A single missed tick (a transient table lock, a
// slow lsof) should not flip the status bar.
const failureThreshold = 3

// healthTracker tracks consecutive failure counts per data source (the
// prober, the handle resolver, the database). Fields are protected by mu
// because the refresh tick writes them from the monitor goroutine while
// snapshot() reads them when assembling the published state.
type healthTracker struct {
	mu      sync.Mutex
	sources map[string]*sourceState
	order   []string
}

type sourceState struct {
	failures int
	lastErr  string
	lastFail time.Time
}

func newHealthTracker(names ...string) *healthTracker {
	h := &healthTracker{
		sources: make(map[string]*sourceState, len(names)),
		order:   append([]string(nil), names...),
	}
	for _, n := range names {
		h.sources[n] = &sourceState{}
	}
	sort.Strings(h.order)
	return h
}

func (h *healthTracker) recordSuccess(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state(name)
	s.failures = 0
	s.lastErr = ""
}

func (h *healthTracker) recordFailure(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.state(name)
	s.failures++
	s.lastErr = err.Error()
	s.lastFail = time.Now()
}

// state returns the tracked source, registering unknown names on the fly.
// Caller must hold h.mu.
func (h *healthTracker) state(name string) *sourceState {
	s, ok := h.sources[name]
	if !ok {
		s = &sourceState{}
		h.sources[name] = s
		h.order = append(h.order, name)
		sort.Strings(h.order)
	}
	return s
}

// snapshot returns a consistent copy of every source's health, ordered by
// name so the status bar renders stably.
func (h *healthTracker) snapshot() []session.SourceStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	statuses := make([]session.SourceStatus, 0, len(h.order))
	for _, name := range h.order {
		s := h.sources[name]
		st := session.SourceStatus{
			Source:   name,
			OK:       s.failures < failureThreshold,
			Failures: s.failures,
		}
		if !st.OK {
			st.Detail = s.lastErr
		}
		statuses = append(statuses, st)
	}
	return statuses
}

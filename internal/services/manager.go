package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/utils"

	"go.uber.org/zap"
)

// Manager owns one ReservationPipeline per client session and rebuilds a
// pipeline from the SessionStore when it is not in memory.
type Manager struct {
	deps PipelineDeps

	mu       sync.Mutex
	sessions map[string]*ReservationPipeline
}

func NewManager(deps PipelineDeps) *Manager {
	return &Manager{deps: deps, sessions: map[string]*ReservationPipeline{}}
}

// Session returns the pipeline of sessionID, restoring persisted state on
// first use.
func (m *Manager) Session(ctx context.Context, sessionID string) (*ReservationPipeline, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.ValidationError{Field: "session_id", Msg: "required"}
	}

	m.mu.Lock()
	p, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if ok {
		return p, nil
	}

	// concurrent first uses keep whichever pipeline registers first
	p = NewReservationPipeline(m.deps, sessionID)
	restored := false
	if m.deps.Sessions != nil {
		st, found, err := m.deps.Sessions.Get(ctx, sessionID)
		if err != nil {
			return nil, domain.InternalError{Msg: "session store unavailable", Err: err}
		}
		if found {
			p.restore(st)
			restored = true
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sessionID]; ok {
		return existing, nil
	}
	m.sessions[sessionID] = p
	if restored {
		utils.LogEvent(sessionID, "session", "restore", "pipeline restored from session store")
	}
	return p, nil
}

// Forget drops the in-memory pipeline; persisted state is kept.
func (m *Manager) Forget(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// Evict forgets pipelines idle for longer than idle, except those with a
// payment in flight. It returns how many were dropped.
func (m *Manager) Evict(idle time.Duration) int {
	cutoff := m.deps.now().Add(-idle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, p := range m.sessions {
		if p.idle(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// RunJanitor evicts idle pipelines every interval until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Evict(idle); n > 0 {
				utils.Logger().Debug("evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}

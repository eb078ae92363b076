package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the live controllers of this process and mirrors them into a
// Store. Sessions are sticky to the instance that loaded them.
type Manager struct {
	deps  Deps
	store Store
	idle  time.Duration

	mu       sync.Mutex
	sessions map[string]*Controller
}

// NewManager creates a manager. A zero idle timeout disables eviction.
func NewManager(deps Deps, store Store, idle time.Duration) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		deps:     deps.withDefaults(),
		store:    store,
		idle:     idle,
		sessions: make(map[string]*Controller),
	}
}

// Deps exposes the shared collaborators, for handlers that generate without
// a session.
func (m *Manager) Deps() Deps { return m.deps }

// Create starts an empty session and persists it.
func (m *Manager) Create(ctx context.Context) (*Controller, error) {
	c := NewController(uuid.NewString(), m.deps)
	if err := m.store.Save(ctx, c.Snapshot()); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[c.ID()] = c
	m.mu.Unlock()
	m.deps.Logger.Debug().Str("session", c.ID()).Msg("editor: session created")
	return c, nil
}

// Get returns the live controller for id, loading it from the store when it
// is not resident.
func (m *Manager) Get(ctx context.Context, id string) (*Controller, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	m.mu.Lock()
	c, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return c, nil
	}

	st, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	restored, err := RestoreController(st, m.deps)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		return existing, nil
	}
	m.sessions[id] = restored
	return restored, nil
}

// Save persists the controller's current snapshot.
func (m *Manager) Save(ctx context.Context, c *Controller) error {
	return m.store.Save(ctx, c.Snapshot())
}

// Close drops a session everywhere.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	_, resident := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !resident {
		if _, err := m.store.Load(ctx, id); err != nil {
			return err
		}
	}
	return m.store.Delete(ctx, id)
}

// Len reports the number of resident sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep evicts sessions idle for longer than the timeout and returns how many
// were dropped. Sessions with an in-flight generation are kept. A stored
// snapshot that another instance refreshed recently survives eviction.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.idle <= 0 {
		return 0
	}
	cutoff := m.deps.Now().Add(-m.idle)

	m.mu.Lock()
	var expired []*Controller
	for id, c := range m.sessions {
		if c.Generating() || c.UpdatedAt().After(cutoff) {
			continue
		}
		expired = append(expired, c)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, c := range expired {
		st, err := m.store.Load(ctx, c.ID())
		if err == nil && st.UpdatedAt.After(cutoff) {
			continue
		}
		if err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.deps.Logger.Warn().Err(err).Str("session", c.ID()).Msg("editor: load during sweep")
			continue
		}
		if err := m.store.Delete(ctx, c.ID()); err != nil {
			m.deps.Logger.Warn().Err(err).Str("session", c.ID()).Msg("editor: delete idle session")
		}
	}
	if len(expired) > 0 {
		m.deps.Logger.Info().Int("evicted", len(expired)).Msg("editor: idle sessions swept")
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.idle <= 0 {
		return
	}
	interval := m.idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

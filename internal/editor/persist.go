package editor

import (
	"fmt"
	"time"

	"thumbgen/internal/domain"
	"thumbgen/internal/scene"
)

// SessionState is the persisted form of a Controller.
type SessionState struct {
	ID            string                   `json:"id"`
	State         State                    `json:"state"`
	Scene         scene.State              `json:"scene"`
	Request       domain.GenerationRequest `json:"request"`
	BackgroundURL string                   `json:"backgroundUrl,omitempty"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// Snapshot captures the session for a Store. A session caught mid-export is
// saved as editing since the export scope always ends there.
func (c *Controller) Snapshot() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state
	if state == StateExporting {
		state = StateEditing
	}
	return SessionState{
		ID:            c.id,
		State:         state,
		Scene:         c.scene.State(),
		Request:       c.request,
		BackgroundURL: c.background,
		UpdatedAt:     c.updatedAt,
	}
}

// RestoreController rebuilds a controller from a snapshot.
func RestoreController(st SessionState, deps Deps) (*Controller, error) {
	deps = deps.withDefaults()
	switch st.State {
	case StateNoImage, StateEditing, StatePreviewing:
	case StateExporting:
		st.State = StateEditing
	default:
		return nil, fmt.Errorf("%w: unknown session state %q", domain.ErrInvalidState, st.State)
	}
	if st.ID == "" {
		return nil, fmt.Errorf("%w: session id missing", domain.ErrInvalidState)
	}
	sc, err := scene.Restore(st.Scene)
	if err != nil {
		return nil, err
	}
	if st.State != StateNoImage {
		if _, ok := sc.Background(); !ok && len(sc.Elements()) == 0 && sc.History().Len() == 0 {
			st.State = StateNoImage
		}
	}
	updated := st.UpdatedAt
	if updated.IsZero() {
		updated = deps.Now()
	}
	return &Controller{
		id:         st.ID,
		deps:       deps,
		state:      st.State,
		chrome:     st.State != StatePreviewing,
		scene:      sc,
		request:    st.Request,
		background: st.BackgroundURL,
		updatedAt:  updated,
	}, nil
}

package scene

import (
	"encoding/json"
	"fmt"

	"thumbgen/internal/domain"
)

// History is a linear list of serialized snapshots with a cursor. Whenever it
// is non-empty, 0 <= cursor < Len().
type History struct {
	entries []json.RawMessage
	cursor  int
	limit   int
}

// NewHistory creates an empty history. A positive limit caps the number of
// snapshots kept; the oldest are dropped first.
func NewHistory(limit int) *History {
	return &History{cursor: -1, limit: limit}
}

// Record truncates everything after the cursor, appends snapshot and moves the
// cursor onto it.
func (h *History) Record(snapshot []byte) {
	entry := append(json.RawMessage(nil), snapshot...)
	h.entries = append(h.entries[:h.cursor+1], entry)
	h.cursor = len(h.entries) - 1
	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]json.RawMessage(nil), h.entries[drop:]...)
		h.cursor -= drop
	}
}

// Undo steps back one snapshot. It is a no-op on an empty history or at the
// first entry.
func (h *History) Undo() ([]byte, bool) {
	if len(h.entries) == 0 || h.cursor <= 0 {
		return nil, false
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Redo steps forward one snapshot. It is a no-op at the last entry.
func (h *History) Redo() ([]byte, bool) {
	if len(h.entries) == 0 || h.cursor >= len(h.entries)-1 {
		return nil, false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Peek returns the snapshot delta steps from the cursor without moving it.
func (h *History) Peek(delta int) ([]byte, bool) {
	i := h.cursor + delta
	if len(h.entries) == 0 || i < 0 || i >= len(h.entries) {
		return nil, false
	}
	return h.entries[i], true
}

// Current returns the snapshot under the cursor.
func (h *History) Current() ([]byte, bool) {
	if len(h.entries) == 0 {
		return nil, false
	}
	return h.entries[h.cursor], true
}

// Cursor is -1 for an empty history.
func (h *History) Cursor() int { return h.cursor }

func (h *History) Len() int { return len(h.entries) }

func (h *History) CanUndo() bool { return len(h.entries) > 0 && h.cursor > 0 }

func (h *History) CanRedo() bool { return len(h.entries) > 0 && h.cursor < len(h.entries)-1 }

// Reset drops every snapshot.
func (h *History) Reset() {
	h.entries = nil
	h.cursor = -1
}

// HistoryState is the persisted form of a History.
type HistoryState struct {
	Entries []json.RawMessage `json:"entries"`
	Cursor  int               `json:"cursor"`
	Limit   int               `json:"limit,omitempty"`
}

// State exports a copy of the history.
func (h *History) State() HistoryState {
	entries := make([]json.RawMessage, len(h.entries))
	for i, e := range h.entries {
		entries[i] = append(json.RawMessage(nil), e...)
	}
	return HistoryState{Entries: entries, Cursor: h.cursor, Limit: h.limit}
}

// RestoreHistory rebuilds a History, checking the cursor invariant.
func RestoreHistory(st HistoryState) (*History, error) {
	h := NewHistory(st.Limit)
	if len(st.Entries) == 0 {
		return h, nil
	}
	if st.Cursor < 0 || st.Cursor >= len(st.Entries) {
		return nil, fmt.Errorf("%w: history cursor %d out of range [0,%d)", domain.ErrInvalidState, st.Cursor, len(st.Entries))
	}
	h.entries = make([]json.RawMessage, len(st.Entries))
	for i, e := range st.Entries {
		h.entries[i] = append(json.RawMessage(nil), e...)
	}
	h.cursor = st.Cursor
	return h, nil
}

package scene

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"thumbgen/internal/domain"
)

// Scene holds the ordered elements (index 0 is drawn first), the selection
// and the snapshot history. It is not safe for concurrent use.
type Scene struct {
	elements []Element
	selected string
	history  *History
	newID    func() string
}

// Option customizes a Scene.
type Option func(*Scene)

// WithHistoryLimit caps the number of snapshots kept.
func WithHistoryLimit(n int) Option {
	return func(s *Scene) { s.history = NewHistory(n) }
}

// WithIDGenerator replaces uuid.NewString for element ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Scene) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New returns an empty scene with an empty history.
func New(opts ...Option) *Scene {
	s := &Scene{history: NewHistory(0), newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Frame is a read-only copy of what to draw.
type Frame struct {
	Elements []Element `json:"elements"`
	Selected string    `json:"selected,omitempty"`
}

// Frame copies the current elements and selection.
func (s *Scene) Frame() Frame {
	return Frame{Elements: s.Elements(), Selected: s.selected}
}

// Elements returns a deep copy of the element sequence.
func (s *Scene) Elements() []Element {
	out := make([]Element, len(s.elements))
	for i, e := range s.elements {
		out[i] = e.Clone()
	}
	return out
}

// Element looks an element up by id.
func (s *Scene) Element(id string) (Element, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.elements[i].Clone(), true
	}
	return Element{}, false
}

// Selected returns the selected element id, or "".
func (s *Scene) Selected() string { return s.selected }

// History exposes the snapshot log for inspection.
func (s *Scene) History() *History { return s.history }

// Background returns the background element, if any.
func (s *Scene) Background() (Element, bool) {
	for _, e := range s.elements {
		if e.Kind == KindBackground {
			return e.Clone(), true
		}
	}
	return Element{}, false
}

func (s *Scene) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, e := range s.elements {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// record appends a snapshot of the current element sequence.
func (s *Scene) record() error {
	snap, err := json.Marshal(s.elements)
	if err != nil {
		return fmt.Errorf("scene: snapshot: %w", err)
	}
	s.history.Record(snap)
	return nil
}

// SetBackground starts a fresh scene: the history is reset, the image covers
// the canvas and a default title sits on top of it.
func (s *Scene) SetBackground(img ImageSource, title string) (Element, error) {
	if err := img.validate(); err != nil {
		return Element{}, err
	}
	bg := backgroundElement(s.newID(), img)
	text := titleElement(s.newID(), strings.TrimSpace(title))
	for _, e := range []Element{bg, text} {
		if err := e.Validate(); err != nil {
			return Element{}, err
		}
	}
	s.elements = []Element{bg, text}
	s.selected = ""
	s.history.Reset()
	return bg.Clone(), s.record()
}

// AddText appends a text element styled like the title, applies opts and
// selects it.
func (s *Scene) AddText(content string, opts Patch) (Element, error) {
	if opts.Content != nil && strings.TrimSpace(*opts.Content) == "" {
		opts.Content = nil
	}
	return s.add(textElement(s.newID(), strings.TrimSpace(content)), opts)
}

// AddShape appends a rectangle, circle or triangle and selects it.
func (s *Scene) AddShape(kind Kind, opts Patch) (Element, error) {
	if !kind.IsShape() {
		return Element{}, fmt.Errorf("%w: %q is not a shape", domain.ErrInvalidElement, kind)
	}
	return s.add(shapeElement(s.newID(), kind), opts)
}

// AddImage appends an uploaded image at the default position, scaled down to
// the upload width ceiling, and selects it.
func (s *Scene) AddImage(img ImageSource) (Element, error) {
	if err := img.validate(); err != nil {
		return Element{}, err
	}
	return s.add(uploadElement(s.newID(), img), Patch{})
}

func (s *Scene) add(e Element, opts Patch) (Element, error) {
	if err := opts.validateFor(e.Kind); err != nil {
		return Element{}, err
	}
	opts.apply(&e)
	if err := e.Validate(); err != nil {
		return Element{}, err
	}
	s.elements = append(s.elements, e)
	s.selected = e.ID
	if err := s.record(); err != nil {
		return Element{}, err
	}
	return e.Clone(), nil
}

// UpdateElement merges patch into the selected element. It reports false and
// changes nothing when id is not the current selection or the patch is empty.
func (s *Scene) UpdateElement(id string, patch Patch) (bool, error) {
	if s.selected == "" || id != s.selected || patch.IsEmpty() {
		return false, nil
	}
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	target := s.elements[i].Clone()
	if err := patch.validateFor(target.Kind); err != nil {
		return false, err
	}
	patch.apply(&target)
	if err := target.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrInvalidPatch, err)
	}
	s.elements[i] = target
	return true, s.record()
}

// RemoveElement deletes id and clears the selection if it pointed there.
func (s *Scene) RemoveElement(id string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: element %q", domain.ErrNotFound, id)
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	return s.record()
}

// Select sets the selection; "" clears it. Unknown ids leave it unchanged.
// Selection never creates a snapshot.
func (s *Scene) Select(id string) error {
	if id == "" {
		s.selected = ""
		return nil
	}
	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: element %q", domain.ErrNotFound, id)
	}
	s.selected = id
	return nil
}

// Undo restores the previous snapshot. It reports false at the boundary.
func (s *Scene) Undo() (bool, error) {
	return s.step(-1)
}

// Redo restores the next snapshot. It reports false at the boundary.
func (s *Scene) Redo() (bool, error) {
	return s.step(1)
}

// step loads the neighbouring snapshot and moves the cursor only once it
// decoded cleanly.
func (s *Scene) step(delta int) (bool, error) {
	snap, ok := s.history.Peek(delta)
	if !ok {
		return false, nil
	}
	elements, err := decodeSnapshot(snap)
	if err != nil {
		return false, err
	}
	if delta < 0 {
		s.history.Undo()
	} else {
		s.history.Redo()
	}
	s.elements = elements
	if s.indexOf(s.selected) < 0 {
		s.selected = ""
	}
	return true, nil
}

func decodeSnapshot(snap []byte) ([]Element, error) {
	var elements []Element
	if err := json.Unmarshal(snap, &elements); err != nil {
		return nil, fmt.Errorf("%w: scene snapshot: %v", domain.ErrInvalidState, err)
	}
	if err := checkElements(elements); err != nil {
		return nil, err
	}
	return elements, nil
}

// checkElements validates each element, id uniqueness and the single
// background rule.
func checkElements(elements []Element) error {
	seen := make(map[string]struct{}, len(elements))
	backgrounds := 0
	for _, e := range elements {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidElement, e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.Kind == KindBackground {
			backgrounds++
		}
	}
	if backgrounds > 1 {
		return fmt.Errorf("%w: more than one background", domain.ErrInvalidElement)
	}
	return nil
}

// State is the persisted form of a Scene.
type State struct {
	Elements []Element    `json:"elements"`
	Selected string       `json:"selected,omitempty"`
	History  HistoryState `json:"history"`
}

// State exports the scene for persistence.
func (s *Scene) State() State {
	return State{Elements: s.Elements(), Selected: s.selected, History: s.history.State()}
}

// Restore rebuilds a scene from persisted state, revalidating every element.
func Restore(st State, opts ...Option) (*Scene, error) {
	s := New(opts...)
	h, err := RestoreHistory(st.History)
	if err != nil {
		return nil, err
	}
	if err := checkElements(st.Elements); err != nil {
		return nil, err
	}
	for i, entry := range h.entries {
		if _, err := decodeSnapshot(entry); err != nil {
			return nil, fmt.Errorf("history entry %d: %w", i, err)
		}
	}
	s.elements = make([]Element, len(st.Elements))
	for i, e := range st.Elements {
		s.elements[i] = e.Clone()
	}
	s.history = h
	if s.indexOf(st.Selected) >= 0 {
		s.selected = st.Selected
	}
	return s, nil
}

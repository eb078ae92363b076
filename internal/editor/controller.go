// Package editor drives editing sessions: the state machine around a scene,
// the generation slot, export and session persistence.
package editor

import (
	"context"
	"errors"
	"fmt"
	stdimage "image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"thumbgen/internal/domain"
	"thumbgen/internal/infra"
	providerimage "thumbgen/internal/providers/image"
	"thumbgen/internal/render"
	"thumbgen/internal/scene"
	"thumbgen/internal/storage"
)

// State is the editor mode.
type State string

const (
	StateNoImage    State = "no-image"
	StateEditing    State = "editing"
	StatePreviewing State = "previewing"
	StateExporting  State = "exporting"
)

// ImageGenerator calls a provider once; *providerimage.Registry implements it.
type ImageGenerator interface {
	Generate(ctx context.Context, provider domain.ProviderChoice, prompt string) (providerimage.ImageRef, error)
}

// AssetResolver stores images; *storage.Resolver implements it.
type AssetResolver interface {
	Resolve(ctx context.Context, ref string) (storage.Asset, error)
	Save(ctx context.Context, data []byte, mime string) (storage.Asset, error)
}

// Renderer rasterizes frames; *render.Rasterizer implements it.
type Renderer interface {
	Render(ctx context.Context, frame scene.Frame, opts render.Options) (*stdimage.NRGBA, error)
}

// Deps are the collaborators shared by every controller.
type Deps struct {
	Generator    ImageGenerator
	Assets       AssetResolver
	Renderer     Renderer
	Generations  domain.GenerationRepository
	Logger       *infra.Logger
	HistoryLimit int
	Now          func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = infra.NopLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Controller owns one session's scene. Scene operations are serialized by mu;
// the provider call runs outside it, guarded by the generation slot.
type Controller struct {
	id   string
	deps Deps

	mu         sync.Mutex
	state      State
	chrome     bool
	scene      *scene.Scene
	request    domain.GenerationRequest
	background string
	updatedAt  time.Time

	generating atomic.Bool
}

// NewController creates an empty session in the no-image state.
func NewController(id string, deps Deps) *Controller {
	deps = deps.withDefaults()
	if id == "" {
		id = uuid.NewString()
	}
	return &Controller{
		id:        id,
		deps:      deps,
		state:     StateNoImage,
		chrome:    true,
		scene:     scene.New(scene.WithHistoryLimit(deps.HistoryLimit)),
		updatedAt: deps.Now(),
	}
}

func (c *Controller) ID() string { return c.id }

// State returns the current mode.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UpdatedAt is the time of the last operation.
func (c *Controller) UpdatedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt
}

// Generating reports whether the generation slot is taken.
func (c *Controller) Generating() bool { return c.generating.Load() }

// View is a read-only description of a session.
type View struct {
	ID            string                   `json:"id"`
	State         State                    `json:"state"`
	Generating    bool                     `json:"generating"`
	Elements      []scene.Element          `json:"elements"`
	Selected      string                   `json:"selected,omitempty"`
	CanUndo       bool                     `json:"canUndo"`
	CanRedo       bool                     `json:"canRedo"`
	HistoryLength int                      `json:"historyLength"`
	HistoryCursor int                      `json:"historyCursor"`
	Request       domain.GenerationRequest `json:"request"`
	BackgroundURL string                   `json:"backgroundUrl,omitempty"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// View snapshots the session for clients.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	h := c.scene.History()
	return View{
		ID:            c.id,
		State:         c.state,
		Generating:    c.generating.Load(),
		Elements:      c.scene.Elements(),
		Selected:      c.scene.Selected(),
		CanUndo:       h.CanUndo(),
		CanRedo:       h.CanRedo(),
		HistoryLength: h.Len(),
		HistoryCursor: h.Cursor(),
		Request:       c.request,
		BackgroundURL: c.background,
		UpdatedAt:     c.updatedAt,
	}
}

// GenerateResult is the outcome of a successful generation.
type GenerateResult struct {
	ImageURL string `json:"imageUrl"`
	View     View   `json:"session"`
}

// Generate builds the prompt, calls the provider once and, on success,
// replaces the scene with one holding the new background. A failure leaves
// the scene and state exactly as they were.
func (c *Controller) Generate(ctx context.Context, req domain.GenerationRequest) (GenerateResult, error) {
	if err := req.Validate(); err != nil {
		return GenerateResult{}, err
	}
	if req.Provider == "" {
		req.Provider = domain.ProviderOpenAI
	}
	release, err := c.acquireSlot()
	if err != nil {
		return GenerateResult{}, err
	}
	defer release()
	if err := c.requireNot(StateExporting); err != nil {
		return GenerateResult{}, err
	}

	prompt := providerimage.BuildThumbnailPrompt(req)
	start := c.deps.Now()
	ref, err := c.deps.Generator.Generate(ctx, req.Provider, prompt)
	if err == nil {
		err = c.replaceBackground(ctx, req.Provider, ref.Href(), req)
	}
	c.logGeneration(ctx, req, prompt, start, err)
	if err != nil {
		return GenerateResult{}, err
	}
	return GenerateResult{ImageURL: ref.Href(), View: c.View()}, nil
}

// SetBackground initializes the scene from an image generated elsewhere
// (for example by the stateless generate endpoints).
func (c *Controller) SetBackground(ctx context.Context, imageURL, title string) (View, error) {
	release, err := c.acquireSlot()
	if err != nil {
		return View{}, err
	}
	defer release()
	if err := c.requireNot(StateExporting); err != nil {
		return View{}, err
	}
	req := domain.GenerationRequest{Title: title}
	if err := c.replaceBackground(ctx, "", imageURL, req); err != nil {
		return View{}, err
	}
	return c.View(), nil
}

func (c *Controller) acquireSlot() (func(), error) {
	if !c.generating.CompareAndSwap(false, true) {
		return nil, domain.ErrGenerationInFlight
	}
	return func() { c.generating.Store(false) }, nil
}

// replaceBackground stores the image, builds a fresh scene around it and
// swaps it in. Nothing changes on error.
func (c *Controller) replaceBackground(ctx context.Context, provider domain.ProviderChoice, ref string, req domain.GenerationRequest) error {
	asset, err := c.deps.Assets.Resolve(ctx, ref)
	if err != nil {
		if provider == "" {
			return err
		}
		if errors.Is(err, domain.ErrValidation) {
			// The provider handed back something that is not a usable image.
			return domain.NewGenerationError(provider, domain.ErrProvider, err)
		}
		return providerimage.Classify(provider, err)
	}
	info, err := DecodeImage(asset.Data)
	if err != nil {
		if provider != "" {
			return domain.NewGenerationError(provider, domain.ErrProvider, err)
		}
		return err
	}

	fresh := scene.New(scene.WithHistoryLimit(c.deps.HistoryLimit))
	src := scene.ImageSource{AssetKey: asset.Key, MIME: info.MIME, Width: info.Width, Height: info.Height}
	if _, err := fresh.SetBackground(src, req.Title); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateExporting {
		return fmt.Errorf("%w: export in progress", domain.ErrInvalidState)
	}
	c.scene = fresh
	c.state = StateEditing
	c.chrome = true
	c.request = req
	if len(ref) < 2048 {
		c.background = ref
	} else {
		c.background = ""
	}
	c.touchLocked()
	return nil
}

func (c *Controller) logGeneration(ctx context.Context, req domain.GenerationRequest, prompt string, start time.Time, err error) {
	rec := &domain.GenerationRecord{
		ID:        uuid.NewString(),
		SessionID: c.id,
		Provider:  req.Provider,
		Title:     req.Title,
		Prompt:    prompt,
		Status:    domain.GenerationStatusSucceeded,
		Duration:  c.deps.Now().Sub(start),
		CreatedAt: start,
	}
	event := c.deps.Logger.Info()
	if err != nil {
		rec.Status = domain.GenerationStatusFailed
		rec.ErrorMessage = err.Error()
		event = c.deps.Logger.Error().Err(err)
	}
	event.Str("session", c.id).
		Str("provider", string(req.Provider)).
		Dur("took", rec.Duration).
		Msg("editor: generation finished")

	if c.deps.Generations == nil {
		return
	}
	if recErr := c.deps.Generations.Record(context.WithoutCancel(ctx), rec); recErr != nil {
		c.deps.Logger.Warn().Err(recErr).Str("session", c.id).Msg("editor: record generation")
	}
}

func (c *Controller) requireNot(s State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == s {
		return fmt.Errorf("%w: session is %s", domain.ErrInvalidState, c.state)
	}
	return nil
}

func (c *Controller) touchLocked() {
	c.updatedAt = c.deps.Now()
}

// editing runs fn under the lock when the session is in the editing state.
func (c *Controller) editing(fn func(s *scene.Scene) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing {
		return fmt.Errorf("%w: session is %s", domain.ErrInvalidState, c.state)
	}
	if err := fn(c.scene); err != nil {
		return err
	}
	c.touchLocked()
	return nil
}

// Select sets or clears ("") the selection.
func (c *Controller) Select(id string) error {
	return c.editing(func(s *scene.Scene) error { return s.Select(id) })
}

// AddText appends a text overlay.
func (c *Controller) AddText(content string, opts scene.Patch) (scene.Element, error) {
	var el scene.Element
	err := c.editing(func(s *scene.Scene) (err error) {
		el, err = s.AddText(content, opts)
		return err
	})
	return el, err
}

// AddShape appends a rectangle, circle or triangle.
func (c *Controller) AddShape(kind scene.Kind, opts scene.Patch) (scene.Element, error) {
	var el scene.Element
	err := c.editing(func(s *scene.Scene) (err error) {
		el, err = s.AddShape(kind, opts)
		return err
	})
	return el, err
}

// AddImage decodes and stores an upload, then appends it to the scene.
func (c *Controller) AddImage(ctx context.Context, data []byte) (scene.Element, error) {
	if err := c.requireState(StateEditing); err != nil {
		return scene.Element{}, err
	}
	info, err := DecodeImage(data)
	if err != nil {
		return scene.Element{}, err
	}
	asset, err := c.deps.Assets.Save(ctx, data, info.MIME)
	if err != nil {
		return scene.Element{}, err
	}
	var el scene.Element
	err = c.editing(func(s *scene.Scene) (err error) {
		el, err = s.AddImage(scene.ImageSource{AssetKey: asset.Key, MIME: info.MIME, Width: info.Width, Height: info.Height})
		return err
	})
	return el, err
}

// UpdateElement patches the selected element; false means nothing changed.
func (c *Controller) UpdateElement(id string, patch scene.Patch) (bool, error) {
	var changed bool
	err := c.editing(func(s *scene.Scene) (err error) {
		changed, err = s.UpdateElement(id, patch)
		return err
	})
	return changed, err
}

// RemoveElement deletes an element.
func (c *Controller) RemoveElement(id string) error {
	return c.editing(func(s *scene.Scene) error { return s.RemoveElement(id) })
}

// Undo is allowed while editing and previewing.
func (c *Controller) Undo() (bool, error) {
	return c.history(func(s *scene.Scene) (bool, error) { return s.Undo() })
}

// Redo is allowed while editing and previewing.
func (c *Controller) Redo() (bool, error) {
	return c.history(func(s *scene.Scene) (bool, error) { return s.Redo() })
}

func (c *Controller) history(fn func(s *scene.Scene) (bool, error)) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing && c.state != StatePreviewing {
		return false, fmt.Errorf("%w: session is %s", domain.ErrInvalidState, c.state)
	}
	moved, err := fn(c.scene)
	if moved {
		c.touchLocked()
	}
	return moved, err
}

// TogglePreview flips between editing and previewing.
func (c *Controller) TogglePreview() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateEditing:
		c.state = StatePreviewing
		c.chrome = false
	case StatePreviewing:
		c.state = StateEditing
		c.chrome = true
	default:
		return c.state, fmt.Errorf("%w: cannot preview while %s", domain.ErrInvalidState, c.state)
	}
	c.touchLocked()
	return c.state, nil
}

func (c *Controller) requireState(s State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != s {
		return fmt.Errorf("%w: session is %s", domain.ErrInvalidState, c.state)
	}
	return nil
}

// RenderView rasterizes the scene as the editor shows it, with the selection
// box while editing.
func (c *Controller) RenderView(ctx context.Context, w io.Writer) error {
	c.mu.Lock()
	if c.state == StateNoImage {
		c.mu.Unlock()
		return fmt.Errorf("%w: nothing to render yet", domain.ErrInvalidState)
	}
	frame := c.scene.Frame()
	chrome := c.chrome && c.state == StateEditing
	c.mu.Unlock()

	img, err := c.deps.Renderer.Render(ctx, frame, render.Options{Multiplier: 1, Chrome: chrome})
	if err != nil {
		return err
	}
	return render.EncodePNG(w, img)
}

// Export writes a 2x PNG of the scene without editor chrome. The session is
// in the exporting state for the duration; state and chrome are restored
// whether or not the capture succeeds.
func (c *Controller) Export(ctx context.Context, w io.Writer) (err error) {
	c.mu.Lock()
	if c.state != StateEditing {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot export while %s", domain.ErrInvalidState, state)
	}
	c.state = StateExporting
	c.chrome = false
	frame := c.scene.Frame()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateEditing
		c.chrome = true
		c.touchLocked()
		c.mu.Unlock()
	}()

	img, err := c.deps.Renderer.Render(ctx, frame, render.Options{Multiplier: render.ExportMultiplier})
	if err != nil {
		return fmt.Errorf("editor: export: %w", err)
	}
	return render.EncodePNG(w, img)
}

// ChromeVisible reports whether editor chrome would be drawn right now.
func (c *Controller) ChromeVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chrome
}

// CompareResult holds one outcome per provider.
type CompareResult map[domain.ProviderChoice]CompareOutcome

// CompareOutcome is either an image or a user-facing error.
type CompareOutcome struct {
	ImageURL string `json:"imageUrl,omitempty"`
	Error    string `json:"error,omitempty"`
	Err      error  `json:"-"`
}

// Compare runs every provider concurrently for one request. It never touches a
// scene; per-provider failures are reported in the result.
func Compare(ctx context.Context, gen ImageGenerator, req domain.GenerationRequest) (CompareResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return compareProviders(ctx, gen, req)
}

// Compare runs both providers for req without touching the session's scene.
func (c *Controller) Compare(ctx context.Context, req domain.GenerationRequest) (CompareResult, error) {
	return Compare(ctx, c.deps.Generator, req)
}

func failureMessage(provider domain.ProviderChoice, err error) string {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) {
		return genErr.UserMessage()
	}
	return domain.NewGenerationError(provider, domain.ErrNetwork, err).UserMessage()
}

package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thumbgen/internal/domain"
	providerimage "thumbgen/internal/providers/image"
	"thumbgen/internal/render"
	"thumbgen/internal/scene"
	"thumbgen/internal/storage"
)

const generatedURL = "https://img.example.com/generated.png"

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []domain.ProviderChoice
	prompts []string
	fail    map[domain.ProviderChoice]error
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, provider domain.ProviderChoice, prompt string) (providerimage.ImageRef, error) {
	f.mu.Lock()
	f.calls = append(f.calls, provider)
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if err := f.fail[provider]; err != nil {
		return providerimage.ImageRef{}, err
	}
	return providerimage.ImageRef{URL: generatedURL}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAssets struct {
	mu     sync.Mutex
	refs   map[string][]byte
	saved  map[string][]byte
	reject error
}

func newFakeAssets(t *testing.T) *fakeAssets {
	return &fakeAssets{
		refs:  map[string][]byte{generatedURL: pngBytes(t, 320, 180)},
		saved: map[string][]byte{},
	}
}

func (f *fakeAssets) Resolve(ctx context.Context, ref string) (storage.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject != nil {
		return storage.Asset{}, f.reject
	}
	data, ok := f.refs[ref]
	if !ok {
		return storage.Asset{}, errors.New("fetch failed")
	}
	key := storage.ContentKey(data, "image/png")
	f.saved[key] = data
	return storage.Asset{Key: key, MIME: "image/png", Data: data}, nil
}

func (f *fakeAssets) Save(ctx context.Context, data []byte, mime string) (storage.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := storage.ContentKey(data, mime)
	f.saved[key] = data
	return storage.Asset{Key: key, MIME: mime, Data: data}, nil
}

type fakeRenderer struct {
	mu      sync.Mutex
	opts    []render.Options
	err     error
	onCall  func()
	lastLen int
}

func (f *fakeRenderer) Render(ctx context.Context, frame scene.Frame, opts render.Options) (*image.NRGBA, error) {
	f.mu.Lock()
	f.opts = append(f.opts, opts)
	f.lastLen = len(frame.Elements)
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall()
	}
	if f.err != nil {
		return nil, f.err
	}
	w, h := render.Size(opts.Multiplier)
	return image.NewNRGBA(image.Rect(0, 0, w, h)), nil
}

type fakeRepo struct {
	mu      sync.Mutex
	records []domain.GenerationRecord
}

func (f *fakeRepo) Record(ctx context.Context, rec *domain.GenerationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeRepo) ListRecent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	return nil, nil
}

type fixture struct {
	gen      *fakeGenerator
	assets   *fakeAssets
	renderer *fakeRenderer
	repo     *fakeRepo
	deps     Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gen:      &fakeGenerator{fail: map[domain.ProviderChoice]error{}},
		assets:   newFakeAssets(t),
		renderer: &fakeRenderer{},
		repo:     &fakeRepo{},
	}
	f.deps = Deps{Generator: f.gen, Assets: f.assets, Renderer: f.renderer, Generations: f.repo, HistoryLimit: 100}
	return f
}

func (f *fixture) editingController(t *testing.T) *Controller {
	t.Helper()
	c := NewController("s1", f.deps)
	_, err := c.Generate(context.Background(), domain.GenerationRequest{Title: "Epic Boss Fight"})
	require.NoError(t, err)
	require.Equal(t, StateEditing, c.State())
	return c
}

func TestGenerateSuccessEntersEditing(t *testing.T) {
	f := newFixture(t)
	c := NewController("s1", f.deps)
	assert.Equal(t, StateNoImage, c.State())

	res, err := c.Generate(context.Background(), domain.GenerationRequest{Title: "Epic Boss Fight"})
	require.NoError(t, err)
	assert.Equal(t, generatedURL, res.ImageURL)
	assert.Equal(t, StateEditing, res.View.State)
	require.Len(t, res.View.Elements, 2)
	assert.Equal(t, scene.KindBackground, res.View.Elements[0].Kind)
	assert.Equal(t, "Epic Boss Fight", res.View.Elements[1].Text.Content)
	assert.Equal(t, 4.0, res.View.Elements[0].Geometry.ScaleX, "320x180 covers 1280x720 at 4x")

	require.Len(t, f.gen.prompts, 1)
	assert.Contains(t, f.gen.prompts[0], `titled "Epic Boss Fight".`)
	assert.Equal(t, []domain.ProviderChoice{domain.ProviderOpenAI}, f.gen.calls)

	require.Len(t, f.repo.records, 1)
	assert.Equal(t, domain.GenerationStatusSucceeded, f.repo.records[0].Status)
	assert.Equal(t, "s1", f.repo.records[0].SessionID)
	assert.False(t, c.Generating())
}

func TestGenerateFailureLeavesSceneUntouched(t *testing.T) {
	f := newFixture(t)
	c := f.editingController(t)
	_, err := c.AddText("keep me", scene.Patch{})
	require.NoError(t, err)
	before := c.View()

	f.gen.fail[domain.ProviderImagen] = domain.NewGenerationError(domain.ProviderImagen, domain.ErrProvider, errors.New("500"))
	_, err = c.Generate(context.Background(), domain.GenerationRequest{Title: "Other", Provider: domain.ProviderImagen})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProvider)
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "Failed to generate thumbnail with Google Imagen. Please try again.", genErr.UserMessage())

	after := c.View()
	assert.Equal(t, before.Elements, after.Elements)
	assert.Equal(t, before.HistoryLength, after.HistoryLength)
	assert.Equal(t, StateEditing, after.State)
	assert.Equal(t, domain.GenerationStatusFailed, f.repo.records[len(f.repo.records)-1].Status)
}

func TestGenerateFailureFromNoImageStaysNoImage(t *testing.T) {
	f := newFixture(t)
	f.gen.fail[domain.ProviderOpenAI] = domain.NewGenerationError(domain.ProviderOpenAI, domain.ErrConfiguration, errors.New("missing key"))
	c := NewController("s1", f.deps)
	_, err := c.Generate(context.Background(), domain.GenerationRequest{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, StateNoImage, c.State())
	assert.Empty(t, c.View().Elements)
}

func TestGenerateDownloadFailureIsGenerationError(t *testing.T) {
	f := newFixture(t)
	delete(f.assets.refs, generatedURL)
	c := NewController("s1", f.deps)
	_, err := c.Generate(context.Background(), domain.GenerationRequest{Title: "x"})
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, domain.ProviderOpenAI, genErr.Provider)
	assert.Equal(t, StateNoImage, c.State())
}

func TestGenerateNonImageResultIsProviderError(t *testing.T) {
	f := newFixture(t)
	f.assets.reject = domain.ValidationError("content type %q is not an image", "text/html")
	c := NewController("s1", f.deps)
	_, err := c.Generate(context.Background(), domain.GenerationRequest{Title: "x"})
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.Equal(t, StateNoImage, c.State())

	_, err = c.SetBackground(context.Background(), "data:text/html;base64,eA==", "t")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, errors.As(err, &genErr), "user supplied images are not provider failures")
}

func TestGenerateValidationSkipsProvider(t *testing.T) {
	f := newFixture(t)
	c := NewController("s1", f.deps)
	_, err := c.Generate(context.Background(), domain.GenerationRequest{Title: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, f.gen.callCount())
	assert.Empty(t, f.repo.records)
}

func TestGenerateSingleInFlightSlot(t *testing.T) {
	f := newFixture(t)
	f.gen.block = make(chan struct{})
	f.gen.entered = make(chan struct{}, 1)
	c := NewController("s1", f.deps)

	done := make(chan error, 1)
	go func() {
		_, err := c.Generate(context.Background(), domain.GenerationRequest{Title: "first"})
		done <- err
	}()
	<-f.gen.entered
	assert.True(t, c.Generating())

	_, err := c.Generate(context.Background(), domain.GenerationRequest{Title: "second"})
	assert.ErrorIs(t, err, domain.ErrGenerationInFlight)
	_, err = c.SetBackground(context.Background(), generatedURL, "third")
	assert.ErrorIs(t, err, domain.ErrGenerationInFlight)

	close(f.gen.block)
	require.NoError(t, <-done)
	assert.False(t, c.Generating())
	assert.Equal(t, 1, f.gen.callCount())

	f.gen.block = nil
	f.gen.entered = nil
	_, err = c.Generate(context.Background(), domain.GenerationRequest{Title: "again"})
	assert.NoError(t, err)
}

func TestMutationsRequireEditing(t *testing.T) {
	f := newFixture(t)
	c := NewController("s1", f.deps)

	_, err := c.AddText("x", scene.Patch{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = c.AddShape(scene.KindCircle, scene.Patch{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, c.Select(""), domain.ErrInvalidState)
	_, err = c.Undo()
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = c.TogglePreview()
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, c.Export(context.Background(), &bytes.Buffer{}), domain.ErrInvalidState)
	assert.ErrorIs(t, c.RenderView(context.Background(), &bytes.Buffer{}), domain.ErrInvalidState)
}

func TestPreviewAllowsOnlyUndoRedo(t *testing.T) {
	f := newFixture(t)
	c := f.editingController(t)
	el, err := c.AddShape(scene.KindRectangle, scene.Patch{})
	require.NoError(t, err)

	state, err := c.TogglePreview()
	require.NoError(t, err)
	assert.Equal(t, StatePreviewing, state)
	assert.False(t, c.ChromeVisible())

	_, err = c.AddText("x", scene.Patch{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, c.RemoveElement(el.ID), domain.ErrInvalidState)
	assert.ErrorIs(t, c.Export(context.Background(), &bytes.Buffer{}), domain.ErrInvalidState)

	moved, err := c.Undo()
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Len(t, c.View().Elements, 2)
	moved, err = c.Redo()
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Len(t, c.View().Elements, 3)

	require.NoError(t, c.RenderView(context.Background(), &bytes.Buffer{}))
	assert.False(t, f.renderer.opts[len(f.renderer.opts)-1].Chrome, "preview hides chrome")

	state, err = c.TogglePreview()
	require.NoError(t, err)
	assert.Equal(t, StateEditing, state)
	assert.True(t, c.ChromeVisible())
}

func TestExportHidesChromeAndRestores(t *testing.T) {
	f := newFixture(t)
	c := f.editingController(t)
	var during State
	var chromeDuring bool
	f.renderer.onCall = func() {
		during = c.State()
		chromeDuring = c.ChromeVisible()
	}

	var buf bytes.Buffer
	require.NoError(t, c.Export(context.Background(), &buf))
	assert.Equal(t, StateExporting, during)
	assert.False(t, chromeDuring)
	assert.Equal(t, StateEditing, c.State())
	assert.True(t, c.ChromeVisible())

	opts := f.renderer.opts[len(f.renderer.opts)-1]
	assert.Equal(t, float64(render.ExportMultiplier), opts.Multiplier)
	assert.False(t, opts.Chrome)

	cfg, format, err := image.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 2560, cfg.Width)
	assert.Equal(t, 1440, cfg.Height)
}

func TestExportRestoresStateOnFailure(t *testing.T) {
	f := newFixture(t)
	c := f.editingController(t)
	f.renderer.err = errors.New("raster failed")

	err := c.Export(context.Background(), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, StateEditing, c.State())
	assert.True(t, c.ChromeVisible())
}

func TestExportBlocksMutations(t *testing.T) {
	f := newFixture(t)
	c := f.editingController(t)
	var addErr error
	f.renderer.onCall = func() {
		_, addErr = c.AddText("during export", scene.Patch{})
	}
	require.NoError(t, c.Export(context.Background(), &bytes.Buffer{}))
	assert.ErrorIs(t, addErr, domain.ErrInvalidState)
}

func TestAddImageScalesUpload(t *testing.T) {
	f := newFixture(t)
	c := f.editingController(t)

	el, err := c.AddImage(context.Background(), pngBytes(t, 600, 400))
	require.NoError(t, err)
	assert.InDelta(t, 300, el.ScaledWidth(), 1e-9)
	assert.InDelta(t, 200, el.ScaledHeight(), 1e-9)
	assert.Equal(t, el.ID, c.View().Selected)
	assert.Contains(t, f.assets.saved, el.Image.AssetKey)

	_, err = c.AddImage(context.Background(), []byte("not an image"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateElementThroughController(t *testing.T) {
	f := newFixture(t)
	c := f.editingController(t)
	title := c.View().Elements[1]

	changed, err := c.UpdateElement(title.ID, scene.Patch{Fill: ptr("#ff0000")})
	require.NoError(t, err)
	assert.False(t, changed, "not selected")

	require.NoError(t, c.Select(title.ID))
	changed, err = c.UpdateElement(title.ID, scene.Patch{Fill: ptr("#ff0000")})
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = c.UpdateElement(title.ID, scene.Patch{Radius: ptr(3.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidPatch)
	assert.ErrorIs(t, c.Select("ghost"), domain.ErrNotFound)
	assert.Equal(t, title.ID, c.View().Selected)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	c := f.editingController(t)
	_, err := c.AddShape(scene.KindTriangle, scene.Patch{})
	require.NoError(t, err)
	_, err = c.TogglePreview()
	require.NoError(t, err)

	restored, err := RestoreController(c.Snapshot(), f.deps)
	require.NoError(t, err)
	assert.Equal(t, c.View().Elements, restored.View().Elements)
	assert.Equal(t, StatePreviewing, restored.State())
	assert.False(t, restored.ChromeVisible())

	moved, err := restored.Undo()
	require.NoError(t, err)
	assert.True(t, moved)

	bad := c.Snapshot()
	bad.State = "floating"
	_, err = RestoreController(bad, f.deps)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCompareRunsBothProviders(t *testing.T) {
	f := newFixture(t)
	f.gen.fail[domain.ProviderImagen] = domain.NewGenerationError(domain.ProviderImagen, domain.ErrNetwork, errors.New("timeout"))

	res, err := Compare(context.Background(), f.gen, domain.GenerationRequest{Title: "Epic Boss Fight"})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, generatedURL, res[domain.ProviderOpenAI].ImageURL)
	assert.Empty(t, res[domain.ProviderOpenAI].Error)
	assert.Equal(t, "Failed to generate thumbnail with Google Imagen. Please try again.", res[domain.ProviderImagen].Error)
	assert.ErrorIs(t, res[domain.ProviderImagen].Err, domain.ErrNetwork)
	assert.Equal(t, 2, f.gen.callCount())

	_, err = Compare(context.Background(), f.gen, domain.GenerationRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeImage(t *testing.T) {
	info, err := DecodeImage(pngBytes(t, 12, 7))
	require.NoError(t, err)
	assert.Equal(t, ImageInfo{Width: 12, Height: 7, MIME: "image/png"}, info)

	_, err = DecodeImage(nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = DecodeImage([]byte("GIF89a-broken"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func ptr[T any](v T) *T { return &v }

func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	var mu sync.Mutex
	now := start
	return func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}, func(d time.Duration) {
			mu.Lock()
			now = now.Add(d)
			mu.Unlock()
		}
}

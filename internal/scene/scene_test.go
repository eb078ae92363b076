package scene

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thumbgen/internal/domain"
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}
}

func newTestScene(t *testing.T, opts ...Option) *Scene {
	t.Helper()
	return New(append([]Option{WithIDGenerator(seqIDs())}, opts...)...)
}

func ptr[T any](v T) *T { return &v }

func bg(w, h int) ImageSource {
	return ImageSource{AssetKey: "assets/bg.png", MIME: "image/png", Width: w, Height: h}
}

func TestSetBackgroundCoversCanvas(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		wantScale float64
	}{
		{"exact 16:9", 1792, 1008, 1280.0 / 1792.0},
		{"wide image scales to height", 2000, 500, 720.0 / 500.0},
		{"tall image scales to width", 500, 1000, 1280.0 / 500.0},
		{"small image is upscaled", 640, 360, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestScene(t)
			el, err := s.SetBackground(bg(tc.w, tc.h), "Epic Boss Fight")
			require.NoError(t, err)

			assert.InDelta(t, tc.wantScale, el.Geometry.ScaleX, 1e-9)
			assert.Equal(t, el.Geometry.ScaleX, el.Geometry.ScaleY)
			assert.GreaterOrEqual(t, el.ScaledWidth()+1e-9, float64(CanvasWidth))
			assert.GreaterOrEqual(t, el.ScaledHeight()+1e-9, float64(CanvasHeight))
			assert.Equal(t, OriginCenter, el.Geometry.Origin)
			assert.Equal(t, 640.0, el.Geometry.Left)
			assert.Equal(t, 360.0, el.Geometry.Top)
		})
	}
}

func TestSetBackgroundAddsDefaultTitle(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(1792, 1024), "Epic Boss Fight")
	require.NoError(t, err)

	els := s.Elements()
	require.Len(t, els, 2)
	assert.Equal(t, KindBackground, els[0].Kind)

	title := els[1]
	require.Equal(t, KindText, title.Kind)
	assert.Equal(t, "Epic Boss Fight", title.Text.Content)
	assert.Equal(t, "Inter, Arial, sans-serif", title.Text.FontFamily)
	assert.Equal(t, 60.0, title.Text.FontSize)
	assert.Equal(t, "bold", title.Text.FontWeight)
	assert.Equal(t, "center", title.Text.TextAlign)
	assert.Equal(t, 500.0, title.Geometry.Width)
	assert.Equal(t, OriginCenter, title.Geometry.Origin)
	assert.Equal(t, "#ffffff", title.Paint.Fill)
	assert.Equal(t, "#000000", title.Paint.Stroke)
	assert.Equal(t, 1.0, title.Paint.StrokeWidth)
	require.NotNil(t, title.Paint.Shadow)
	assert.Equal(t, Shadow{Color: "rgba(0,0,0,0.5)", Blur: 5, OffsetX: 2, OffsetY: 2}, *title.Paint.Shadow)

	assert.Empty(t, s.Selected())
	assert.Equal(t, 1, s.History().Len())
	assert.Equal(t, 0, s.History().Cursor())
}

func TestSetBackgroundBlankTitleUsesPlaceholder(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(1280, 720), "   ")
	require.NoError(t, err)
	assert.Equal(t, "Your Title Here", s.Elements()[1].Text.Content)
}

func TestSetBackgroundReplacesSceneAndHistory(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(1280, 720), "first")
	require.NoError(t, err)
	_, err = s.AddText("", Patch{})
	require.NoError(t, err)
	_, err = s.AddShape(KindCircle, Patch{})
	require.NoError(t, err)

	_, err = s.SetBackground(bg(1920, 1080), "second")
	require.NoError(t, err)
	els := s.Elements()
	require.Len(t, els, 2)
	assert.Equal(t, "second", els[1].Text.Content)
	assert.Equal(t, 1, s.History().Len())
	assert.Empty(t, s.Selected())

	backgrounds := 0
	for _, e := range els {
		if e.Kind == KindBackground {
			backgrounds++
		}
	}
	assert.Equal(t, 1, backgrounds)
}

func TestSetBackgroundRejectsInvalidImage(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(ImageSource{AssetKey: "k", Width: 0, Height: 10}, "t")
	assert.ErrorIs(t, err, domain.ErrInvalidElement)
	assert.Empty(t, s.Elements())
	assert.Equal(t, 0, s.History().Len())
}

func TestAddTextDefaultsAndSelection(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(1280, 720), "t")
	require.NoError(t, err)

	el, err := s.AddText("", Patch{})
	require.NoError(t, err)
	assert.Equal(t, "New Text", el.Text.Content)
	assert.Equal(t, 100.0, el.Geometry.Left)
	assert.Equal(t, 100.0, el.Geometry.Top)
	assert.Equal(t, 200.0, el.Geometry.Width)
	assert.Equal(t, 30.0, el.Text.FontSize)
	assert.Equal(t, "#ffffff", el.Paint.Fill)
	assert.Equal(t, el.ID, s.Selected())
	assert.Equal(t, 2, s.History().Len())

	custom, err := s.AddText("Hello", Patch{FontSize: ptr(48.0), Fill: ptr("#ff0000")})
	require.NoError(t, err)
	assert.Equal(t, "Hello", custom.Text.Content)
	assert.Equal(t, 48.0, custom.Text.FontSize)
	assert.Equal(t, "#ff0000", custom.Paint.Fill)
}

func TestAddShape(t *testing.T) {
	s := newTestScene(t)
	for _, kind := range []Kind{KindRectangle, KindCircle, KindTriangle} {
		el, err := s.AddShape(kind, Patch{})
		require.NoError(t, err)
		assert.Equal(t, kind, el.Kind)
		assert.Equal(t, 100.0, el.Geometry.Width)
		assert.Equal(t, 100.0, el.Geometry.Height)
		assert.Equal(t, "rgba(255, 255, 255, 0.5)", el.Paint.Fill)
		assert.Equal(t, "#000000", el.Paint.Stroke)
		assert.Equal(t, el.ID, s.Selected())
	}
	circle := s.Elements()[1]
	assert.Equal(t, 50.0, circle.Geometry.Radius)

	_, err := s.AddShape(KindText, Patch{})
	assert.ErrorIs(t, err, domain.ErrInvalidElement)
	_, err = s.AddShape(KindRectangle, Patch{Content: ptr("nope")})
	assert.ErrorIs(t, err, domain.ErrInvalidPatch)
	assert.Len(t, s.Elements(), 3)
	assert.Equal(t, 3, s.History().Len())
}

func TestAddImageScalesWideUploads(t *testing.T) {
	s := newTestScene(t)
	el, err := s.AddImage(ImageSource{AssetKey: "assets/up.png", MIME: "image/png", Width: 600, Height: 400})
	require.NoError(t, err)
	assert.InDelta(t, 300, el.ScaledWidth(), 1e-9)
	assert.InDelta(t, 200, el.ScaledHeight(), 1e-9)
	assert.Equal(t, el.Geometry.ScaleX, el.Geometry.ScaleY)
	assert.Equal(t, 100.0, el.Geometry.Left)
	assert.Equal(t, 100.0, el.Geometry.Top)
	assert.Equal(t, el.ID, s.Selected())

	small, err := s.AddImage(ImageSource{AssetKey: "assets/small.png", Width: 120, Height: 80})
	require.NoError(t, err)
	assert.Equal(t, 1.0, small.Geometry.ScaleX)
	assert.Equal(t, 120.0, small.ScaledWidth())
}

func TestUpdateElementRequiresSelection(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(1280, 720), "t")
	require.NoError(t, err)
	title := s.Elements()[1]

	changed, err := s.UpdateElement(title.ID, Patch{Left: ptr(10.0)})
	require.NoError(t, err)
	assert.False(t, changed, "nothing selected")
	assert.Equal(t, 1, s.History().Len())

	require.NoError(t, s.Select(title.ID))
	changed, err = s.UpdateElement("other", Patch{Left: ptr(10.0)})
	require.NoError(t, err)
	assert.False(t, changed, "id is not the selection")

	changed, err = s.UpdateElement(title.ID, Patch{})
	require.NoError(t, err)
	assert.False(t, changed, "empty patch")
	assert.Equal(t, 1, s.History().Len())

	changed, err = s.UpdateElement(title.ID, Patch{Fill: ptr("#00ff00"), FontSize: ptr(36.0), Content: ptr("Boss")})
	require.NoError(t, err)
	assert.True(t, changed)
	updated, _ := s.Element(title.ID)
	assert.Equal(t, "#00ff00", updated.Paint.Fill)
	assert.Equal(t, 36.0, updated.Text.FontSize)
	assert.Equal(t, "Boss", updated.Text.Content)
	assert.Equal(t, 2, s.History().Len())
}

func TestUpdateElementRejectsForeignFields(t *testing.T) {
	s := newTestScene(t)
	rect, err := s.AddShape(KindRectangle, Patch{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		patch Patch
	}{
		{"text on shape", Patch{FontSize: ptr(20.0)}},
		{"radius on rectangle", Patch{Radius: ptr(10.0)}},
		{"bad color", Patch{Fill: ptr("not-a-color")}},
		{"zero scale", Patch{ScaleX: ptr(0.0)}},
		{"negative stroke", Patch{StrokeWidth: ptr(-1.0)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := s.History().Len()
			changed, err := s.UpdateElement(rect.ID, tc.patch)
			assert.ErrorIs(t, err, domain.ErrInvalidPatch)
			assert.False(t, changed)
			assert.Equal(t, before, s.History().Len())
			current, _ := s.Element(rect.ID)
			assert.Equal(t, rect, current)
		})
	}
}

func TestUpdateCircleRadiusKeepsBoundingBox(t *testing.T) {
	s := newTestScene(t)
	circle, err := s.AddShape(KindCircle, Patch{})
	require.NoError(t, err)
	changed, err := s.UpdateElement(circle.ID, Patch{Radius: ptr(80.0)})
	require.NoError(t, err)
	require.True(t, changed)
	updated, _ := s.Element(circle.ID)
	assert.Equal(t, 160.0, updated.Geometry.Width)
	assert.Equal(t, 160.0, updated.Geometry.Height)

	_, err = s.UpdateElement(circle.ID, Patch{Width: ptr(10.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidPatch)
}

func TestRemoveElement(t *testing.T) {
	s := newTestScene(t)
	a, err := s.AddShape(KindRectangle, Patch{})
	require.NoError(t, err)
	b, err := s.AddShape(KindTriangle, Patch{})
	require.NoError(t, err)

	require.NoError(t, s.RemoveElement(a.ID))
	assert.Equal(t, b.ID, s.Selected(), "removing another element keeps the selection")
	require.NoError(t, s.RemoveElement(b.ID))
	assert.Empty(t, s.Selected())
	assert.Empty(t, s.Elements())

	before := s.History().Len()
	err = s.RemoveElement("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, before, s.History().Len())
}

func TestSelectNonexistentLeavesSelection(t *testing.T) {
	s := newTestScene(t)
	el, err := s.AddText("x", Patch{})
	require.NoError(t, err)
	require.Equal(t, el.ID, s.Selected())

	err = s.Select("does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, el.ID, s.Selected())

	require.NoError(t, s.Select(""))
	assert.Empty(t, s.Selected())
	assert.Equal(t, 1, s.History().Len(), "selection creates no snapshot")
}

func TestUndoRedoRoundTrip(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(1792, 1024), "t")
	require.NoError(t, err)
	_, err = s.AddText("one", Patch{})
	require.NoError(t, err)
	shape, err := s.AddShape(KindCircle, Patch{})
	require.NoError(t, err)
	_, err = s.UpdateElement(shape.ID, Patch{Left: ptr(400.0), Angle: ptr(45.0)})
	require.NoError(t, err)

	for s.History().CanUndo() {
		before := s.Elements()
		ok, err := s.Undo()
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = s.Redo()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, before, s.Elements())
		_, err = s.Undo()
		require.NoError(t, err)
	}

	ok, err := s.Undo()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, s.Elements(), 2)
}

func TestUndoBranchScenario(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(1280, 720), "S0")
	require.NoError(t, err)
	s1, err := s.AddText("S1", Patch{})
	require.NoError(t, err)
	_, err = s.AddText("S2", Patch{})
	require.NoError(t, err)
	require.Equal(t, 2, s.History().Cursor())

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, s.History().Cursor())
	els := s.Elements()
	require.Len(t, els, 3)
	assert.Equal(t, s1.ID, els[2].ID)
	assert.Empty(t, s.Selected(), "selection of an element gone after undo is cleared")

	_, err = s.AddShape(KindRectangle, Patch{})
	require.NoError(t, err)
	assert.Equal(t, 3, s.History().Len())
	assert.Equal(t, 2, s.History().Cursor())
	ok, err = s.Redo()
	require.NoError(t, err)
	assert.False(t, ok, "redo branch was discarded")
}

func TestUndoKeepsSelectionWhenPresent(t *testing.T) {
	s := newTestScene(t)
	rect, err := s.AddShape(KindRectangle, Patch{})
	require.NoError(t, err)
	_, err = s.UpdateElement(rect.ID, Patch{Left: ptr(300.0)})
	require.NoError(t, err)

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rect.ID, s.Selected())
	el, _ := s.Element(rect.ID)
	assert.Equal(t, 100.0, el.Geometry.Left)
}

func TestStateRestore(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(1280, 720), "t")
	require.NoError(t, err)
	txt, err := s.AddText("hi", Patch{})
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)

	restored, err := Restore(s.State(), WithIDGenerator(seqIDs()))
	require.NoError(t, err)
	assert.Equal(t, s.Elements(), restored.Elements())
	assert.Equal(t, s.History().Cursor(), restored.History().Cursor())

	ok, err := restored.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	_, found := restored.Element(txt.ID)
	assert.True(t, found)

	st := s.State()
	st.Elements = append(st.Elements, st.Elements[0])
	_, err = Restore(st)
	assert.ErrorIs(t, err, domain.ErrInvalidElement)
}

func TestParseShapeKind(t *testing.T) {
	k, err := ParseShapeKind("rect")
	require.NoError(t, err)
	assert.Equal(t, KindRectangle, k)
	k, err = ParseShapeKind(" Circle ")
	require.NoError(t, err)
	assert.Equal(t, KindCircle, k)
	_, err = ParseShapeKind("hexagon")
	assert.ErrorIs(t, err, domain.ErrInvalidElement)
}

func TestUpdateElementRejectsOversizedGeometry(t *testing.T) {
	s := newTestScene(t)
	background, err := s.SetBackground(bg(1280, 720), "Epic Boss Fight")
	require.NoError(t, err)
	require.NoError(t, s.Select(background.ID))

	tests := []struct {
		name  string
		patch Patch
	}{
		{"huge scale", Patch{ScaleX: ptr(1e5), ScaleY: ptr(1e5)}},
		{"past extent", Patch{ScaleX: ptr(50.0), ScaleY: ptr(50.0)}},
		{"past area", Patch{ScaleX: ptr(3.0), ScaleY: ptr(3.0)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := s.History().Len()
			changed, err := s.UpdateElement(background.ID, tc.patch)
			assert.ErrorIs(t, err, domain.ErrInvalidPatch)
			assert.False(t, changed)
			assert.Equal(t, before, s.History().Len())
			current, _ := s.Element(background.ID)
			assert.Equal(t, background, current)
		})
	}

	changed, err := s.UpdateElement(background.ID, Patch{ScaleX: ptr(2.0), ScaleY: ptr(2.0)})
	require.NoError(t, err)
	assert.True(t, changed, "zooming within the limits is allowed")
}

func TestTextAndPaintLimits(t *testing.T) {
	s := newTestScene(t)
	text, err := s.AddText("Big", Patch{})
	require.NoError(t, err)

	for name, patch := range map[string]Patch{
		"font size":     {FontSize: ptr(1e8)},
		"stroke width":  {StrokeWidth: ptr(float64(MaxStrokeWidth + 1))},
		"shadow blur":   {Shadow: &Shadow{Color: "#000", Blur: MaxShadowBlur + 1}},
		"shadow offset": {Shadow: &Shadow{Color: "#000", OffsetX: -(MaxShadowOffset + 1)}},
		"width":         {Width: ptr(float64(MaxExtent + 1))},
		"scaled font":   {ScaleY: ptr(20.0)},
	} {
		t.Run(name, func(t *testing.T) {
			changed, err := s.UpdateElement(text.ID, patch)
			assert.ErrorIs(t, err, domain.ErrInvalidPatch)
			assert.False(t, changed)
		})
	}

	_, err = s.AddShape(KindCircle, Patch{Radius: ptr(1e6)})
	assert.ErrorIs(t, err, domain.ErrInvalidPatch)
	_, err = s.AddText(strings.Repeat("x", MaxTextLength+1), Patch{})
	assert.ErrorIs(t, err, domain.ErrInvalidElement)
}

func TestSetBackgroundRejectsExtremeAspectRatio(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(100, 10000), "t")
	assert.ErrorIs(t, err, domain.ErrInvalidElement)
	assert.Empty(t, s.Elements())
}

func TestAddTextBlankContentUsesDefault(t *testing.T) {
	s := newTestScene(t)
	for _, opts := range []Patch{{Content: ptr("")}, {Content: ptr("   ")}} {
		el, err := s.AddText("", opts)
		require.NoError(t, err)
		assert.Equal(t, "New Text", el.Text.Content)
	}
	el, err := s.AddText("Keep", Patch{Content: ptr("")})
	require.NoError(t, err)
	assert.Equal(t, "Keep", el.Text.Content)
}

func TestUndoWithCorruptSnapshotKeepsCursor(t *testing.T) {
	s := newTestScene(t)
	_, err := s.SetBackground(bg(1280, 720), "t")
	require.NoError(t, err)
	_, err = s.AddShape(KindRectangle, Patch{})
	require.NoError(t, err)

	st := s.State()
	st.History.Entries[0] = []byte(`{"not":"elements"}`)
	_, err = Restore(st)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "restore validates history entries")

	s.history.entries[0] = []byte(`{"not":"elements"}`)
	elements := s.Elements()
	cursor := s.History().Cursor()
	ok, err := s.Undo()
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.False(t, ok)
	assert.Equal(t, cursor, s.History().Cursor())
	assert.Equal(t, elements, s.Elements())
}

package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"thumbgen/internal/domain"
	"thumbgen/internal/editor"
	"thumbgen/internal/scene"
	"thumbgen/pkg/zip"
)

const exportFilename = "youtube-thumbnail.png"

type backgroundRequest struct {
	ImageURL string `json:"imageUrl"`
	Title    string `json:"title"`
}

type addShapeRequest struct {
	Kind    string      `json:"kind"`
	Options scene.Patch `json:"options"`
}

type selectionRequest struct {
	ID string `json:"id"`
}

type elementResponse struct {
	Element scene.Element `json:"element"`
	Session editor.View   `json:"session"`
}

type changeResponse struct {
	Changed bool        `json:"changed"`
	Session editor.View `json:"session"`
}

// session loads the controller named in the path, writing the error response
// itself when it cannot.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*editor.Controller, bool) {
	c, err := a.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return nil, false
	}
	return c, true
}

// persist mirrors the session into the store. Failures are logged; the
// resident controller stays authoritative.
func (a *App) persist(r *http.Request, c *editor.Controller) {
	if err := a.Sessions.Save(r.Context(), c); err != nil {
		a.Logger.Warn().Err(err).Str("session", c.ID()).Msg("persist session")
	}
}

func (a *App) CreateSession(w http.ResponseWriter, r *http.Request) {
	c, err := a.Sessions.Create(r.Context())
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+c.ID())
	a.json(w, http.StatusCreated, c.View())
}

func (a *App) GetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, c.View())
}

func (a *App) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := a.Sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) SessionGenerate(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	var body generateRequest
	if !a.decode(w, r, &body, false) {
		return
	}
	provider, err := domain.ParseProvider(body.Provider)
	if err != nil {
		a.fail(w, r, err, http.StatusBadGateway)
		return
	}
	res, err := c.Generate(r.Context(), body.toDomain(provider))
	if err != nil {
		a.fail(w, r, err, http.StatusBadGateway)
		return
	}
	a.persist(r, c)
	a.json(w, http.StatusOK, res)
}

func (a *App) SessionBackground(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	var body backgroundRequest
	if !a.decode(w, r, &body, true) {
		return
	}
	if body.ImageURL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "imageUrl is required")
		return
	}
	view, err := c.SetBackground(r.Context(), body.ImageURL, body.Title)
	if err != nil {
		a.fail(w, r, err, http.StatusBadGateway)
		return
	}
	a.persist(r, c)
	a.json(w, http.StatusOK, view)
}

func (a *App) AddText(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	var opts scene.Patch
	if !a.decode(w, r, &opts, true) {
		return
	}
	content := ""
	if opts.Content != nil {
		content = *opts.Content
	}
	el, err := c.AddText(content, opts)
	a.respondElement(w, r, c, el, err)
}

func (a *App) AddShape(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	var body addShapeRequest
	if !a.decode(w, r, &body, true) {
		return
	}
	kind, err := scene.ParseShapeKind(body.Kind)
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	el, err := c.AddShape(kind, body.Options)
	a.respondElement(w, r, c, el, err)
}

func (a *App) AddImage(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid upload: "+err.Error())
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, a.MaxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "read upload: "+err.Error())
		return
	}
	if int64(len(data)) > a.MaxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds "+strconv.FormatInt(a.MaxUploadBytes, 10)+" bytes")
		return
	}
	el, err := c.AddImage(r.Context(), data)
	a.respondElement(w, r, c, el, err)
}

func (a *App) respondElement(w http.ResponseWriter, r *http.Request, c *editor.Controller, el scene.Element, err error) {
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	a.persist(r, c)
	a.json(w, http.StatusCreated, elementResponse{Element: el, Session: c.View()})
}

func (a *App) UpdateElement(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	var patch scene.Patch
	if !a.decode(w, r, &patch, true) {
		return
	}
	changed, err := c.UpdateElement(chi.URLParam(r, "eid"), patch)
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	if changed {
		a.persist(r, c)
	}
	a.json(w, http.StatusOK, changeResponse{Changed: changed, Session: c.View()})
}

func (a *App) RemoveElement(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	if err := c.RemoveElement(chi.URLParam(r, "eid")); err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	a.persist(r, c)
	a.json(w, http.StatusOK, c.View())
}

func (a *App) Select(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	var body selectionRequest
	if !a.decode(w, r, &body, true) {
		return
	}
	if err := c.Select(body.ID); err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	a.persist(r, c)
	a.json(w, http.StatusOK, c.View())
}

func (a *App) Undo(w http.ResponseWriter, r *http.Request) {
	a.step(w, r, (*editor.Controller).Undo)
}

func (a *App) Redo(w http.ResponseWriter, r *http.Request) {
	a.step(w, r, (*editor.Controller).Redo)
}

func (a *App) step(w http.ResponseWriter, r *http.Request, fn func(*editor.Controller) (bool, error)) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	moved, err := fn(c)
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	if moved {
		a.persist(r, c)
	}
	a.json(w, http.StatusOK, changeResponse{Changed: moved, Session: c.View()})
}

func (a *App) TogglePreview(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	if _, err := c.TogglePreview(); err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	a.persist(r, c)
	a.json(w, http.StatusOK, c.View())
}

func (a *App) RenderPNG(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := c.RenderView(r.Context(), &buf); err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := c.Export(r.Context(), &buf); err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// ExportZip bundles the exported PNG with the scene description.
func (a *App) ExportZip(w http.ResponseWriter, r *http.Request) {
	c, ok := a.session(w, r)
	if !ok {
		return
	}
	var png bytes.Buffer
	if err := c.Export(r.Context(), &png); err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	sceneJSON, err := json.MarshalIndent(c.Snapshot().Scene.Elements, "", "  ")
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	archive, err := zip.Archive([]zip.Entry{
		{Filename: exportFilename, Data: png.Bytes()},
		{Filename: "scene.json", Data: sceneJSON},
	}, time.Now())
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="thumbnail-`+c.ID()+`.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// Asset serves stored image bytes by content key.
func (a *App) Asset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid asset key")
		return
	}
	data, err := a.Assets.Load(r.Context(), "assets/"+name)
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"thumbgen/internal/catalog"
)

func (a *App) ListTemplates(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": catalog.Search(r.URL.Query().Get("q"))})
}

func (a *App) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "tid"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "template id must be numeric")
		return
	}
	t, ok := catalog.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "template not found")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"template": t, "request": t.Request()})
}

func (a *App) ListGenerations(w http.ResponseWriter, r *http.Request) {
	if a.Generations == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "generation log is not configured")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 200 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 200")
			return
		}
		limit = n
	}
	items, err := a.Generations.ListRecent(r.Context(), limit)
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

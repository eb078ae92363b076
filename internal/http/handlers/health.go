package handlers

import (
	"context"
	"net/http"
	"time"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(a.Checks))
	status, code := "ok", http.StatusOK
	for _, c := range a.Checks {
		if err := c.Ping(ctx); err != nil {
			checks[c.Name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[c.Name] = "ok"
	}
	a.json(w, code, map[string]any{
		"status":   status,
		"sessions": a.Sessions.Len(),
		"checks":   checks,
	})
}

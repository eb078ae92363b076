package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"thumbgen/internal/domain"
	"thumbgen/internal/editor"
	"thumbgen/internal/infra"
	"thumbgen/internal/middleware"
)

// AssetLoader reads stored asset bytes; *storage.Resolver implements it.
type AssetLoader interface {
	Load(ctx context.Context, key string) ([]byte, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type App struct {
	Sessions       *editor.Manager
	Generator      editor.ImageGenerator
	Generations    domain.GenerationRepository
	Assets         AssetLoader
	Logger         *infra.Logger
	MaxUploadBytes int64
	Checks         []Check
}

// NewApp wires handlers to the session manager. Generator defaults to the
// manager's generator.
func NewApp(sessions *editor.Manager, generations domain.GenerationRepository, assets AssetLoader, logger *infra.Logger) *App {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &App{
		Sessions:       sessions,
		Generator:      sessions.Deps().Generator,
		Generations:    generations,
		Assets:         assets,
		Logger:         logger,
		MaxUploadBytes: 10 << 20,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorResponse{Error: message, Code: code})
}

// fail maps err onto the HTTP taxonomy. upstreamStatus is used for
// configuration, provider and network failures.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, upstreamStatus int) {
	var genErr *domain.GenerationError
	switch {
	case errors.As(err, &genErr):
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("provider", string(genErr.Provider)).
			Msg("generation failed")
		a.error(w, upstreamStatus, "generation_failed", genErr.UserMessage())
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidPatch), errors.Is(err, domain.ErrInvalidElement):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrGenerationInFlight):
		a.error(w, http.StatusConflict, "generation_in_flight", "a generation is already running for this session")
	case errors.Is(err, domain.ErrInvalidState):
		a.error(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrProvider), errors.Is(err, domain.ErrNetwork):
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("upstream failure")
		a.error(w, upstreamStatus, "upstream", err.Error())
	case errors.Is(err, context.Canceled):
		a.error(w, 499, "canceled", "request canceled")
	default:
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("internal error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any, strict bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload: "+err.Error())
		return false
	}
	return true
}

package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"thumbgen/internal/http/handlers"
	"thumbgen/internal/infra"
	"thumbgen/internal/middleware"
)

type Options struct {
	Logger          infra.Logger
	CORSOrigins     []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer, middleware.Logger(opts.Logger), middleware.CORS(opts.CORSOrigins))

	// Health
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	// Provider calls and remote image fetches are the expensive routes.
	generation := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.With(generation).Post("/generate", app.GenerateOpenAI)
		r.With(generation).Post("/generate-imagen", app.GenerateImagen)
		r.With(generation).Post("/compare", app.Compare)

		r.Get("/templates", app.ListTemplates)
		r.Get("/templates/{tid}", app.GetTemplate)
		r.Get("/generations", app.ListGenerations)
		r.Get("/assets/{name}", app.Asset)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", app.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.GetSession)
				r.Delete("/", app.DeleteSession)
				r.With(generation).Post("/generate", app.SessionGenerate)
				r.With(generation).Post("/background", app.SessionBackground)

				r.Post("/elements/text", app.AddText)
				r.Post("/elements/shape", app.AddShape)
				r.Post("/elements/image", app.AddImage)
				r.Patch("/elements/{eid}", app.UpdateElement)
				r.Delete("/elements/{eid}", app.RemoveElement)
				r.Put("/selection", app.Select)

				r.Post("/undo", app.Undo)
				r.Post("/redo", app.Redo)
				r.Post("/preview", app.TogglePreview)

				r.Get("/render.png", app.RenderPNG)
				r.Get("/export", app.Export)
				r.Get("/export.zip", app.ExportZip)
			})
		})
	})

	return r
}

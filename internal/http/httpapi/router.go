package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"productshot/internal/http/handlers"
	"productshot/internal/middleware"
)

type Options struct {
	Logger          zerolog.Logger
	RateLimitPerMin int
	EnableFake      bool
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS,
	)

	r.Get("/", app.Usage)
	r.Get("/v1/healthz", app.Health)
	r.Get(handlers.OpenAPIPath, app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/", app.Enhance)
		r.Post("/api/improve", app.Enhance)
		r.Post("/api/edit", app.Edit)
		if opts.EnableFake {
			r.Post("/api/fake", app.Fake)
		}
	})

	return r
}

package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/scenarios", func(r chi.Router) {
		r.Post("/generate", app.ScenariosGenerate)
		r.Get("/{scenario_id}/status", app.ScenarioStatus)
		r.Get("/{scenario_id}/results", app.ScenarioResults)
		r.Get("/{scenario_id}/bundle", app.ScenarioBundle)
	})

	return r
}

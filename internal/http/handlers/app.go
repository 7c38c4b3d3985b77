package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"server/internal/geo"
	"server/internal/infra"
	"server/internal/orchestrator"
)

// RenderReader loads previously stored image bytes by storage key.
type RenderReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// App is the handler container wiring the HTTP surface to the core.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Geo          *geo.Resolver
	// Renders is optional; the bundle download needs it, everything else does not.
	Renders RenderReader
	Logger  infra.Logger
}

func NewApp(orc *orchestrator.Orchestrator, resolver *geo.Resolver, logger infra.Logger) *App {
	return &App{Orchestrator: orc, Geo: resolver, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{"error": code, "message": message})
}

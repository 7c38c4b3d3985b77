package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/pkg/zip"
)

// ScenarioBundle streams a zip archive of the finished scenario: every stored
// render plus a prompts.txt manifest. Available only when a render store is
// configured.
func (a *App) ScenarioBundle(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "scenario_id")
	if scenarioID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "scenario_id required")
		return
	}
	if a.Renders == nil {
		a.error(w, http.StatusServiceUnavailable, "storage_unavailable", "render storage is not configured")
		return
	}

	job, err := a.Orchestrator.GetResults(r.Context(), scenarioID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "scenario not found")
		case errors.Is(err, domain.ErrJobNotTerminal):
			a.error(w, http.StatusConflict, "not_ready", "generation still in progress")
		default:
			a.Logger.Error().Err(err).Str("scenario_id", scenarioID).Msg("handlers: bundle lookup failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load scenario")
		}
		return
	}

	var entries []zip.Entry
	var manifest strings.Builder
	for _, img := range job.Images {
		data, err := a.Renders.Read(r.Context(), img.Ref)
		if err != nil {
			a.Logger.Warn().Err(err).
				Str("scenario_id", scenarioID).
				Str("ref", img.Ref).
				Msg("handlers: stored render missing, skipping")
			continue
		}
		entries = append(entries, zip.Entry{Name: path.Base(img.Ref), Data: data})
		fmt.Fprintf(&manifest, "%s\n%s\n\n", img.Viewpoint, img.Prompt)
	}
	if len(entries) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "no stored renders for scenario")
		return
	}
	entries = append(entries, zip.Entry{Name: "prompts.txt", Data: []byte(manifest.String())})

	archive, err := zip.Archive(entries)
	if err != nil {
		a.Logger.Error().Err(err).Str("scenario_id", scenarioID).Msg("handlers: bundle archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "scenario-"+scenarioID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

type startGenerationResponse struct {
	ScenarioID string `json:"scenario_id"`
	Status     string `json:"status"`
}

// ScenariosGenerate accepts a scenario request and starts the background
// generation job. Acceptance is synchronous, execution is not.
func (a *App) ScenariosGenerate(w http.ResponseWriter, r *http.Request) {
	var req domain.ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	// When the trainer's client supplied no geo context, derive it from the
	// drawn perimeter through the lookup collaborator.
	if req.GeoContext.IsZero() && a.Geo != nil && len(req.Perimeter.Points) >= 3 {
		resolved, err := a.Geo.Resolve(r.Context(), req.Perimeter)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "geo lookup failed: "+err.Error())
			return
		}
		req.GeoContext = resolved
	}

	scenarioID, err := a.Orchestrator.StartGeneration(r.Context(), req)
	if err != nil {
		var safety *domain.PromptSafetyError
		switch {
		case errors.As(err, &safety):
			a.json(w, http.StatusUnprocessableEntity, map[string]any{
				"error":         "prompt_safety_violation",
				"message":       safety.Error(),
				"blocked_terms": safety.Terms,
				"scenario_id":   scenarioID,
			})
		case errors.Is(err, domain.ErrInvalidScenario):
			a.error(w, http.StatusBadRequest, "invalid_scenario", err.Error())
		default:
			a.Logger.Error().Err(err).Msg("handlers: start generation failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to start generation")
		}
		return
	}

	a.json(w, http.StatusAccepted, startGenerationResponse{
		ScenarioID: scenarioID,
		Status:     string(domain.JobStatusPending),
	})
}

// ScenarioStatus returns the current job snapshot. Callers should tolerate a
// transient 404 immediately after ScenariosGenerate and retry with backoff.
func (a *App) ScenarioStatus(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "scenario_id")
	if scenarioID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "scenario_id required")
		return
	}
	job, err := a.Orchestrator.GetStatus(r.Context(), scenarioID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "scenario not found")
			return
		}
		a.Logger.Error().Err(err).Str("scenario_id", scenarioID).Msg("handlers: status lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load scenario")
		return
	}
	a.json(w, http.StatusOK, job)
}

// ScenarioResults returns final images plus the consistency validation once
// the job is terminal; 409 while generation is still running.
func (a *App) ScenarioResults(w http.ResponseWriter, r *http.Request) {
	scenarioID := chi.URLParam(r, "scenario_id")
	if scenarioID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "scenario_id required")
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
			a.Logger.Error().Err(err).Str("scenario_id", scenarioID).Msg("handlers: results lookup failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load results")
		}
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"scenario_id": job.ScenarioID,
		"status":      job.Status,
		"images":      job.Images,
		"validation":  job.Validation,
		"error":       job.ErrorMessage,
	})
}

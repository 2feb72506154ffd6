package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avelar/fitcoach-be/internal/auth"
	"github.com/avelar/fitcoach-be/internal/models"
	"github.com/avelar/fitcoach-be/internal/services"
)

// PlanHandler handles HTTP requests for plan generation and history.
type PlanHandler struct {
	plans services.PlanServiceProvider
	users services.UserServiceProvider
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(plans services.PlanServiceProvider, users services.UserServiceProvider) *PlanHandler {
	return &PlanHandler{plans: plans, users: users}
}

// Generate runs the full pipeline for the submitted profile and returns
// both plans plus the downloadable artifact. Generation failures do not
// fail the request: the affected plan carries apology copy and the
// failed flags are set, leaving the rendering decision to the client.
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.plans.GeneratePlans(r.Context(), claims.Username, profile)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		if errors.Is(err, services.ErrInvalidProfile) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("username", claims.Username).Msg("Plan generation failed")
		http.Error(w, "Failed to generate plans", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// History returns the user's plan records, newest first.
func (h *PlanHandler) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	history, err := h.users.History(r.Context(), claims.Username)
	if err != nil {
		log.Error().Err(err).Str("username", claims.Username).Msg("Failed to retrieve plan history")
		http.Error(w, "Failed to retrieve history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

// DownloadArtifact serves the combined document for the most recent
// plan pair as a plain-text attachment.
func (h *PlanHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Could not retrieve user from token", http.StatusInternalServerError)
		return
	}

	artifact, err := h.plans.LatestArtifact(r.Context(), claims.Username)
	if err != nil {
		if errors.Is(err, services.ErrNoPlans) {
			http.Error(w, "No plans generated yet", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("username", claims.Username).Msg("Failed to build plan artifact")
		http.Error(w, "Failed to build artifact", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.Write([]byte(artifact.Content))
}

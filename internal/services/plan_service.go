package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avelar/fitcoach-be/internal/models"
	"github.com/avelar/fitcoach-be/internal/prompt"
	ws "github.com/avelar/fitcoach-be/internal/websocket"
)

// ApologyText is shown in place of a plan when generation fails. It is
// display copy only and is never written to history.
const ApologyText = "Sorry, I couldn't generate a plan at this moment. Please try again later."

var (
	// ErrNoPlans is returned when a user has no history to build an
	// artifact from.
	ErrNoPlans = errors.New("no plans generated yet")
	// ErrInvalidProfile wraps profile validation failures.
	ErrInvalidProfile = errors.New("invalid profile")
)

// timestampLayout is the history record timestamp format.
const timestampLayout = "2006-01-02 15:04:05"

// Generator produces a complete model response for a prompt, invoking
// onDelta for each streamed fragment.
type Generator interface {
	Generate(ctx context.Context, prompt string, onDelta func(delta string)) (string, error)
}

// Publisher fans progress events out to a user's websocket subscribers.
type Publisher interface {
	BroadcastTo(username string, message []byte)
}

// PlanServiceProvider defines the interface for the generation pipeline.
type PlanServiceProvider interface {
	GeneratePlans(ctx context.Context, username string, profile models.Profile) (models.PlanResult, error)
	LatestArtifact(ctx context.Context, username string) (models.Artifact, error)
}

// PlanService runs the plan-generation and persistence pipeline.
type PlanService struct {
	users UserServiceProvider
	gen   Generator
	hub   Publisher
}

// NewPlanService creates a new PlanService. hub may be nil when no live
// progress relay is wanted.
func NewPlanService(users UserServiceProvider, gen Generator, hub Publisher) *PlanService {
	return &PlanService{users: users, gen: gen, hub: hub}
}

// GeneratePlans validates the profile, builds both prompts and runs the
// two generations strictly in sequence: workout first, then diet. On
// full success the pair is recorded at the front of the user's history;
// if either generation fails, nothing is persisted and the failed plan
// carries apology copy instead. A history write failure is logged and
// otherwise swallowed. The returned error is non-nil only for an
// invalid profile or a cancelled context.
func (s *PlanService) GeneratePlans(ctx context.Context, username string, profile models.Profile) (models.PlanResult, error) {
	if err := profile.Validate(); err != nil {
		return models.PlanResult{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	jobID := uuid.New().String()
	result := models.PlanResult{JobID: jobID}

	s.publish(username, ws.ActionPlanStarted, ws.PlanEvent{JobID: jobID})

	workoutPlan, workoutErr := s.runPhase(ctx, username, jobID, "workout", prompt.Workout(profile))
	if err := ctx.Err(); err != nil {
		return models.PlanResult{}, err
	}

	dietPlan, dietErr := s.runPhase(ctx, username, jobID, "diet", prompt.Diet(profile))
	if err := ctx.Err(); err != nil {
		return models.PlanResult{}, err
	}

	result.WorkoutPlan = workoutPlan
	result.DietPlan = dietPlan

	if workoutErr != nil {
		log.Error().Err(workoutErr).Str("username", username).Str("job_id", jobID).Msg("Workout plan generation failed")
		result.WorkoutPlan = ApologyText
		result.WorkoutFailed = true
	}
	if dietErr != nil {
		log.Error().Err(dietErr).Str("username", username).Str("job_id", jobID).Msg("Diet plan generation failed")
		result.DietPlan = ApologyText
		result.DietFailed = true
	}

	now := time.Now()

	// Policy: apology copy is not a plan. Only a fully successful pair
	// is worth keeping in the user's history.
	if workoutErr == nil && dietErr == nil {
		record := models.PlanRecord{
			Date:        now.Format(timestampLayout),
			WorkoutPlan: workoutPlan,
			DietPlan:    dietPlan,
		}
		if err := s.users.AppendHistory(ctx, username, record); err != nil {
			// Best effort: the user still gets their plans.
			log.Error().Err(err).Str("username", username).Msg("Failed to record plan history")
		} else {
			result.Recorded = true
		}
	}

	result.Artifact = buildArtifact(result.WorkoutPlan, result.DietPlan, now)

	if result.WorkoutFailed || result.DietFailed {
		s.publish(username, ws.ActionPlanFailed, ws.PlanEvent{JobID: jobID, Text: ApologyText})
	} else {
		s.publish(username, ws.ActionPlanCompleted, ws.PlanEvent{JobID: jobID})
	}

	return result, nil
}

// runPhase performs one streamed generation, relaying deltas to the
// user's subscribers as they arrive.
func (s *PlanService) runPhase(ctx context.Context, username, jobID, phase, promptText string) (string, error) {
	s.publish(username, ws.ActionPlanPhase, ws.PlanEvent{JobID: jobID, Phase: phase})

	return s.gen.Generate(ctx, promptText, func(delta string) {
		s.publish(username, ws.ActionPlanDelta, ws.PlanEvent{JobID: jobID, Phase: phase, Text: delta})
	})
}

// LatestArtifact rebuilds the downloadable document from the most
// recent history record.
func (s *PlanService) LatestArtifact(ctx context.Context, username string) (models.Artifact, error) {
	history, err := s.users.History(ctx, username)
	if err != nil {
		return models.Artifact{}, err
	}
	if len(history) == 0 {
		return models.Artifact{}, ErrNoPlans
	}

	latest := history[0]
	date, err := time.Parse(timestampLayout, latest.Date)
	if err != nil {
		date = time.Now()
	}
	return buildArtifact(latest.WorkoutPlan, latest.DietPlan, date), nil
}

func (s *PlanService) publish(username, action string, event ws.PlanEvent) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastTo(username, ws.NewPlanEventMessage(action, event))
}

// buildArtifact assembles the combined plan document and its dated
// filename.
func buildArtifact(workoutPlan, dietPlan string, date time.Time) models.Artifact {
	content := fmt.Sprintf(`# Your Personalized Workout & Diet Plan

## 🏋️ Workout Plan
%s

---

## 🥗 Diet Plan
%s
`, workoutPlan, dietPlan)

	return models.Artifact{
		Filename: fmt.Sprintf("fitness_plan_%s.txt", date.Format("20060102")),
		Content:  content,
	}
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelar/fitcoach-be/internal/models"
	ws "github.com/avelar/fitcoach-be/internal/websocket"
)

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

type scriptedResponse struct {
	deltas []string
	text   string
	err    error
}

// fakeGenerator replays scripted responses in call order.
type fakeGenerator struct {
	script  []scriptedResponse
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, onDelta func(string)) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.script) == 0 {
		return "", errors.New("fakeGenerator: script exhausted")
	}
	next := f.script[0]
	f.script = f.script[1:]
	if next.err != nil {
		return "", next.err
	}
	if onDelta != nil {
		for _, delta := range next.deltas {
			onDelta(delta)
		}
	}
	return next.text, nil
}

// fakePublisher records every broadcast message.
type fakePublisher struct {
	messages []ws.Message
}

func (f *fakePublisher) BroadcastTo(_ string, message []byte) {
	var msg ws.Message
	if json.Unmarshal(message, &msg) == nil {
		f.messages = append(f.messages, msg)
	}
}

func (f *fakePublisher) actions() []string {
	var actions []string
	for _, msg := range f.messages {
		actions = append(actions, msg.Action)
	}
	return actions
}

func planTestProfile() models.Profile {
	return models.Profile{
		Age:             20,
		WeightKg:        60,
		HeightCm:        170,
		Gender:          "Male",
		FitnessGoal:     "Lose Weight",
		WorkoutDays:     3,
		WorkoutLocation: "Home",
		Equipment:       "None",
		DietPreference:  "Anything",
		Cuisine:         "Indian",
		Allergies:       "None",
	}
}

func newPlanFixture(t *testing.T, script ...scriptedResponse) (*PlanService, *UserService, *fakeGenerator, *fakePublisher) {
	t.Helper()
	users := NewUserService(newFakeUserStore())
	require.NoError(t, users.Register(context.Background(), "alice", "pw1"))
	gen := &fakeGenerator{script: script}
	pub := &fakePublisher{}
	return NewPlanService(users, gen, pub), users, gen, pub
}

func TestGeneratePlansSuccessRecordsHistory(t *testing.T) {
	ctx := context.Background()
	svc, users, gen, _ := newPlanFixture(t,
		scriptedResponse{text: "W"},
		scriptedResponse{text: "D"},
	)

	result, err := svc.GeneratePlans(ctx, "alice", planTestProfile())
	require.NoError(t, err)

	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, "W", result.WorkoutPlan)
	assert.Equal(t, "D", result.DietPlan)
	assert.False(t, result.WorkoutFailed)
	assert.False(t, result.DietFailed)
	assert.True(t, result.Recorded)

	// Workout is generated first, then diet.
	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[0], "workout plan")
	assert.Contains(t, gen.prompts[1], "meal plan")

	history, err := users.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "W", history[0].WorkoutPlan)
	assert.Equal(t, "D", history[0].DietPlan)
	assert.Regexp(t, timestampPattern, history[0].Date)
}

func TestGeneratePlansTwiceOrdersHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newPlanFixture(t,
		scriptedResponse{text: "W1"},
		scriptedResponse{text: "D1"},
		scriptedResponse{text: "W2"},
		scriptedResponse{text: "D2"},
	)

	_, err := svc.GeneratePlans(ctx, "alice", planTestProfile())
	require.NoError(t, err)
	_, err = svc.GeneratePlans(ctx, "alice", planTestProfile())
	require.NoError(t, err)

	history, err := users.History(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "W2", history[0].WorkoutPlan)
	assert.Equal(t, "W1", history[1].WorkoutPlan)
}

func TestGeneratePlansArtifactShape(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newPlanFixture(t,
		scriptedResponse{text: "do squats"},
		scriptedResponse{text: "eat lentils"},
	)

	result, err := svc.GeneratePlans(ctx, "alice", planTestProfile())
	require.NoError(t, err)

	content := result.Artifact.Content
	assert.True(t, strings.HasPrefix(content, "# Your Personalized Workout & Diet Plan"))
	assert.Contains(t, content, "## 🏋️ Workout Plan\ndo squats")
	assert.Contains(t, content, "## 🥗 Diet Plan\neat lentils")
	assert.Contains(t, content, "\n---\n")
	assert.Regexp(t, `^fitness_plan_\d{8}\.txt$`, result.Artifact.Filename)
}

func TestGeneratePlansFailureSubstitutesApologyAndSkipsHistory(t *testing.T) {
	ctx := context.Background()
	svc, users, _, pub := newPlanFixture(t,
		scriptedResponse{err: errors.New("stream broke")},
		scriptedResponse{text: "D"},
	)

	result, err := svc.GeneratePlans(ctx, "alice", planTestProfile())
	require.NoError(t, err)

	assert.True(t, result.WorkoutFailed)
	assert.Equal(t, ApologyText, result.WorkoutPlan)
	assert.False(t, result.DietFailed)
	assert.Equal(t, "D", result.DietPlan)
	assert.False(t, result.Recorded, "apology copy must never be persisted")

	history, err := users.History(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.Contains(t, pub.actions(), ws.ActionPlanFailed)
	assert.NotContains(t, pub.actions(), ws.ActionPlanCompleted)
}

func TestGeneratePlansRejectsInvalidProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, gen, _ := newPlanFixture(t)

	profile := planTestProfile()
	profile.Age = 12

	_, err := svc.GeneratePlans(ctx, "alice", profile)
	assert.ErrorIs(t, err, ErrInvalidProfile)
	assert.Empty(t, gen.prompts, "no model call for an invalid profile")
}

func TestGeneratePlansPublishesProgress(t *testing.T) {
	ctx := context.Background()
	svc, _, _, pub := newPlanFixture(t,
		scriptedResponse{deltas: []string{"a", "b"}, text: "ab"},
		scriptedResponse{deltas: []string{"c"}, text: "c"},
	)

	_, err := svc.GeneratePlans(ctx, "alice", planTestProfile())
	require.NoError(t, err)

	actions := pub.actions()
	assert.Equal(t, ws.ActionPlanStarted, actions[0])
	assert.Equal(t, ws.ActionPlanCompleted, actions[len(actions)-1])

	var deltas []string
	for _, msg := range pub.messages {
		if msg.Action == ws.ActionPlanDelta {
			payload := msg.Payload.(map[string]interface{})
			deltas = append(deltas, payload["text"].(string))
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, deltas)
}

func TestGeneratePlansStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc, _, _, _ := newPlanFixture(t,
		scriptedResponse{text: "W"},
		scriptedResponse{text: "D"},
	)

	_, err := svc.GeneratePlans(ctx, "alice", planTestProfile())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLatestArtifact(t *testing.T) {
	ctx := context.Background()
	svc, users, _, _ := newPlanFixture(t,
		scriptedResponse{text: "W"},
		scriptedResponse{text: "D"},
	)

	_, err := svc.LatestArtifact(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoPlans)

	require.NoError(t, users.AppendHistory(ctx, "alice", models.PlanRecord{
		Date:        "2026-08-29 18:30:00",
		WorkoutPlan: "old workout",
		DietPlan:    "old diet",
	}))

	artifact, err := svc.LatestArtifact(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "fitness_plan_20260829.txt", artifact.Filename)
	assert.Contains(t, artifact.Content, "old workout")
	assert.Contains(t, artifact.Content, "old diet")
}

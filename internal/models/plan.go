package models

// Artifact is the combined downloadable plan document.
type Artifact struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// PlanResult is the outcome of one generation request. A failed phase
// carries substituted apology copy in the corresponding plan field;
// Recorded reports whether the pair made it into the user's history.
type PlanResult struct {
	JobID         string   `json:"jobId"`
	WorkoutPlan   string   `json:"workoutPlan"`
	DietPlan      string   `json:"dietPlan"`
	WorkoutFailed bool     `json:"workoutFailed"`
	DietFailed    bool     `json:"dietFailed"`
	Recorded      bool     `json:"recorded"`
	Artifact      Artifact `json:"artifact"`
}

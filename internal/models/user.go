package models

import "time"

// PlanRecord is one generated workout/diet pair in a user's history.
// Records are created as a pair and never mutated afterwards.
type PlanRecord struct {
	Date        string `bson:"date" json:"date"` // "2006-01-02 15:04:05"
	WorkoutPlan string `bson:"workout_plan" json:"workoutPlan"`
	DietPlan    string `bson:"diet_plan" json:"dietPlan"`
}

// User represents a user account in the system. The username doubles as
// the document key, so uniqueness is enforced by the store itself.
type User struct {
	Username     string       `bson:"_id" json:"username"`
	PasswordHash string       `bson:"password" json:"-"` // Never expose this to the client
	History      []PlanRecord `bson:"history" json:"history"`
	CreatedAt    time.Time    `bson:"created_at" json:"createdAt"`
}

// Package prompt builds the natural-language prompts sent to the model.
// Both builders are pure: no I/O, deterministic for a given profile.
package prompt

import (
	"fmt"
	"strings"

	"github.com/avelar/fitcoach-be/internal/models"
)

// Workout renders the workout plan prompt for a profile.
func Workout(p models.Profile) string {
	return fmt.Sprintf(`Create a personalized workout plan for a %d-year-old %s student who is %.1f cm tall and weighs %.1f kg.
Primary Goal: %s.
Workout Schedule: %d days a week.
Workout Location: %s.
Available Equipment: %s.%s
Please provide a weekly schedule. For each workout day, list the exercises with sets and reps. Include a warm-up and cool-down routine. Make the plan encouraging and easy to follow for a student.`,
		p.Age, p.Gender, p.HeightCm, p.WeightKg, p.FitnessGoal,
		p.WorkoutDays, p.WorkoutLocation, p.Equipment,
		specialNotes(p.SpecialInfo))
}

// Diet renders the diet plan prompt for a profile.
func Diet(p models.Profile) string {
	return fmt.Sprintf(`Create a personalized, budget-friendly, 1-day sample meal plan for a %d-year-old %s student with the goal of '%s'.
Dietary Preference: %s.
Preferred Cuisine: %s.
Allergies: %s.%s
The plan should be simple, using easily available ingredients suitable for a student's budget. Provide options for Breakfast, Lunch, Dinner, and one Snack. Make it sound delicious and motivating!`,
		p.Age, p.Gender, p.FitnessGoal,
		p.DietPreference, p.Cuisine, p.Allergies,
		specialNotes(p.SpecialInfo))
}

// specialNotes renders the optional additional-notes section. A blank or
// whitespace-only value omits the section entirely rather than emitting
// an empty heading.
func specialNotes(info string) string {
	if strings.TrimSpace(info) == "" {
		return ""
	}
	return "\nImportant Additional Notes from the user: " + info
}

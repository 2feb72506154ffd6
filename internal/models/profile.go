package models

import "fmt"

// Allowed values for the profile's enumerated fields.
var (
	Genders      = []string{"Male", "Female", "Prefer not to say"}
	FitnessGoals = []string{"Lose Weight", "Gain Muscle", "Improve Fitness & Stamina"}
	Locations    = []string{"Home", "Gym"}
	DietPrefs    = []string{"Anything", "Vegetarian", "Vegan"}
)

// Profile is the set of user-provided attributes driving prompt
// construction. It lives only for the duration of one generation
// request and is never persisted.
type Profile struct {
	Age             int     `json:"age"`
	WeightKg        float64 `json:"weightKg"`
	HeightCm        float64 `json:"heightCm"`
	Gender          string  `json:"gender"`
	FitnessGoal     string  `json:"fitnessGoal"`
	WorkoutDays     int     `json:"workoutDays"`
	WorkoutLocation string  `json:"workoutLocation"`
	Equipment       string  `json:"equipment"`
	DietPreference  string  `json:"dietPreference"`
	Cuisine         string  `json:"cuisine"`
	Allergies       string  `json:"allergies"`
	SpecialInfo     string  `json:"specialInfo"`
}

// Validate checks the numeric ranges and enum memberships. Free-text
// fields (equipment, cuisine, allergies, special info) pass through
// verbatim.
func (p Profile) Validate() error {
	if p.Age < 16 || p.Age > 80 {
		return fmt.Errorf("age must be between 16 and 80, got %d", p.Age)
	}
	if p.WeightKg < 40 || p.WeightKg > 150 {
		return fmt.Errorf("weight must be between 40 and 150 kg, got %g", p.WeightKg)
	}
	if p.HeightCm < 140 || p.HeightCm > 220 {
		return fmt.Errorf("height must be between 140 and 220 cm, got %g", p.HeightCm)
	}
	if p.WorkoutDays < 1 || p.WorkoutDays > 7 {
		return fmt.Errorf("workout days must be between 1 and 7, got %d", p.WorkoutDays)
	}
	if !contains(Genders, p.Gender) {
		return fmt.Errorf("invalid gender %q", p.Gender)
	}
	if !contains(FitnessGoals, p.FitnessGoal) {
		return fmt.Errorf("invalid fitness goal %q", p.FitnessGoal)
	}
	if !contains(Locations, p.WorkoutLocation) {
		return fmt.Errorf("invalid workout location %q", p.WorkoutLocation)
	}
	if !contains(DietPrefs, p.DietPreference) {
		return fmt.Errorf("invalid diet preference %q", p.DietPreference)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

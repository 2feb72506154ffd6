package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validProfile() Profile {
	return Profile{
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

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{"valid", func(p *Profile) {}, false},
		{"age at lower bound", func(p *Profile) { p.Age = 16 }, false},
		{"age at upper bound", func(p *Profile) { p.Age = 80 }, false},
		{"age too low", func(p *Profile) { p.Age = 15 }, true},
		{"age too high", func(p *Profile) { p.Age = 81 }, true},
		{"weight too low", func(p *Profile) { p.WeightKg = 39.5 }, true},
		{"weight too high", func(p *Profile) { p.WeightKg = 151 }, true},
		{"height too low", func(p *Profile) { p.HeightCm = 139 }, true},
		{"height too high", func(p *Profile) { p.HeightCm = 221 }, true},
		{"workout days zero", func(p *Profile) { p.WorkoutDays = 0 }, true},
		{"workout days eight", func(p *Profile) { p.WorkoutDays = 8 }, true},
		{"unknown gender", func(p *Profile) { p.Gender = "Other" }, true},
		{"prefer not to say", func(p *Profile) { p.Gender = "Prefer not to say" }, false},
		{"unknown goal", func(p *Profile) { p.FitnessGoal = "Get Swole" }, true},
		{"unknown location", func(p *Profile) { p.WorkoutLocation = "Park" }, true},
		{"unknown diet", func(p *Profile) { p.DietPreference = "Keto" }, true},
		{"free text passes through", func(p *Profile) {
			p.Equipment = "<script>alert(1)</script>"
			p.Allergies = "everything; drop table users"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

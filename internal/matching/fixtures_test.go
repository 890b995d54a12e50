package matching

import (
	"time"

	"program-matching/internal/models"
)

// ==========================
// Test Fixtures
// ==========================

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func scenarioProfile() *models.StudentProfile {
	return &models.StudentProfile{
		CitizenshipCountry: "India",
		ResidenceCountry:   "India",
		TargetCountries:    []string{"Canada"},
		DegreeLevel:        "Masters",
		MajorInterests:     []string{"Computer Science"},
		GPA:                models.Float(3.7),
		GPAScale:           Scale4,
		BudgetMin:          models.Float(20000),
		BudgetMax:          models.Float(40000),
	}
}

func scenarioProgram() *models.Program {
	return &models.Program{
		ID:             "prog-toronto-cs",
		Name:           "MSc Computer Science",
		DegreeLevel:    "Masters",
		FieldOfStudy:   "Computer Science",
		TuitionPerYear: 28000,
		MinGPA:         models.Float(3.3),
		GPAScale:       Scale4,
		Institution: models.Institution{
			ID:      "inst-toronto",
			Name:    "University of Toronto",
			Country: "Canada",
			City:    "Toronto",
		},
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

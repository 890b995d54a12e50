package matching

import (
	"math"
	"strings"

	"program-matching/internal/models"
)

// Factor weights; they sum to 100.
const (
	WeightBudget   = 30.0
	WeightCountry  = 25.0
	WeightMajor    = 25.0
	WeightAcademic = 20.0
)

// Breakdown holds the per-factor points behind a fit score.
type Breakdown struct {
	Budget   float64 `json:"budget"`
	Country  float64 `json:"country"`
	Major    float64 `json:"major"`
	Academic float64 `json:"academic"`
	Total    int     `json:"total"`
}

// Score returns the fit score of program for profile, in [0, 100].
func Score(profile *models.StudentProfile, program *models.Program) int {
	return ScoreBreakdown(profile, program).Total
}

// ScoreBreakdown computes every factor and the rounded total.
func ScoreBreakdown(profile *models.StudentProfile, program *models.Program) Breakdown {
	b := Breakdown{
		Budget:   budgetPoints(profile, program.TuitionPerYear),
		Country:  countryPoints(profile, program),
		Major:    majorPoints(profile.MajorInterests, program.FieldOfStudy),
		Academic: academicPoints(profile, program),
	}
	b.Total = roundHalfUp(b.Budget + b.Country + b.Major + b.Academic)
	return b
}

func budgetPoints(profile *models.StudentProfile, tuition float64) float64 {
	minBudget := 0.0
	if models.Provided(profile.BudgetMin) {
		minBudget = *profile.BudgetMin
	}
	maxBudget := math.Inf(1)
	if models.Provided(profile.BudgetMax) {
		maxBudget = *profile.BudgetMax
	}

	switch {
	case tuition >= minBudget && tuition <= maxBudget:
		return WeightBudget
	case tuition < minBudget:
		return WeightBudget * 0.8
	}

	overagePercent := (tuition - maxBudget) / maxBudget * 100
	switch {
	case overagePercent <= 20:
		return WeightBudget * 0.6
	case overagePercent <= 50:
		return WeightBudget * 0.3
	default:
		return 0
	}
}

func countryPoints(profile *models.StudentProfile, program *models.Program) float64 {
	if profile.TargetsCountry(program.Institution.Country) {
		return WeightCountry
	}
	return WeightCountry * 0.3
}

// majorPoints awards full weight when any interest and the field contain one
// another, ignoring case.
func majorPoints(interests []string, field string) float64 {
	f := strings.ToLower(field)
	for _, interest := range interests {
		i := strings.ToLower(interest)
		if strings.Contains(f, i) || strings.Contains(i, f) {
			return WeightMajor
		}
	}
	return WeightMajor * 0.5
}

func academicPoints(profile *models.StudentProfile, program *models.Program) float64 {
	student, required, ok := normalizedGPAs(profile, program)
	if !ok {
		return WeightAcademic * 0.5
	}

	margin := student - required
	switch {
	case margin >= 0.5:
		return WeightAcademic
	case margin >= 0.2:
		return WeightAcademic * 0.8
	case margin >= 0:
		return WeightAcademic * 0.6
	default:
		return 0
	}
}

// roundHalfUp rounds to the nearest integer with halves going up.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

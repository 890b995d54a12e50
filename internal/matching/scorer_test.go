package matching

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"program-matching/internal/models"
)

// ==========================
// Fit Score Tests
// ==========================

func TestScoreBreakdown(t *testing.T) {
	tests := []struct {
		name     string
		profile  func(p *models.StudentProfile)
		program  func(p *models.Program)
		expected Breakdown
	}{
		{
			name:     "scenario A",
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 16, Total: 96},
		},
		{
			name:     "tuition below minimum budget",
			program:  func(p *models.Program) { p.TuitionPerYear = 15000 },
			expected: Breakdown{Budget: 24, Country: 25, Major: 25, Academic: 16, Total: 90},
		},
		{
			name:     "tuition 15% over budget",
			program:  func(p *models.Program) { p.TuitionPerYear = 46000 },
			expected: Breakdown{Budget: 18, Country: 25, Major: 25, Academic: 16, Total: 84},
		},
		{
			name:     "tuition 30% over budget",
			program:  func(p *models.Program) { p.TuitionPerYear = 52000 },
			expected: Breakdown{Budget: 9, Country: 25, Major: 25, Academic: 16, Total: 75},
		},
		{
			name: "scenario C: tuition 150% over budget",
			profile: func(p *models.StudentProfile) {
				p.GPA = models.Float(3.9)
			},
			program:  func(p *models.Program) { p.TuitionPerYear = 100000 },
			expected: Breakdown{Budget: 0, Country: 25, Major: 25, Academic: 20, Total: 70},
		},
		{
			name:     "no maximum budget is unbounded",
			profile:  func(p *models.StudentProfile) { p.BudgetMax = nil },
			program:  func(p *models.Program) { p.TuitionPerYear = 90000 },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 16, Total: 96},
		},
		{
			name:     "zero maximum budget is unbounded",
			profile:  func(p *models.StudentProfile) { p.BudgetMax = models.Float(0) },
			program:  func(p *models.Program) { p.TuitionPerYear = 90000 },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 16, Total: 96},
		},
		{
			name:     "no budget at all",
			profile:  func(p *models.StudentProfile) { p.BudgetMin, p.BudgetMax = nil, nil },
			program:  func(p *models.Program) { p.TuitionPerYear = 0 },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 16, Total: 96},
		},
		{
			name: "untargeted country rounds half up",
			program: func(p *models.Program) {
				p.TuitionPerYear = 15000
				p.Institution.Country = "Germany"
			},
			expected: Breakdown{Budget: 24, Country: 7.5, Major: 25, Academic: 16, Total: 73},
		},
		{
			name:     "major interest contained in field",
			profile:  func(p *models.StudentProfile) { p.MajorInterests = []string{"computer"} },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 16, Total: 96},
		},
		{
			name:     "field contained in major interest",
			profile:  func(p *models.StudentProfile) { p.MajorInterests = []string{"Biology", "Computer Science and Engineering"} },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 16, Total: 96},
		},
		{
			name:     "unrelated major",
			profile:  func(p *models.StudentProfile) { p.MajorInterests = []string{"History"} },
			expected: Breakdown{Budget: 30, Country: 25, Major: 12.5, Academic: 16, Total: 84},
		},
		{
			name:     "no major interests",
			profile:  func(p *models.StudentProfile) { p.MajorInterests = nil },
			expected: Breakdown{Budget: 30, Country: 25, Major: 12.5, Academic: 16, Total: 84},
		},
		{
			name:     "missing GPA is neutral",
			profile:  func(p *models.StudentProfile) { p.GPA = nil },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 10, Total: 90},
		},
		{
			name:     "program without minimum GPA is neutral",
			program:  func(p *models.Program) { p.MinGPA = nil },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 10, Total: 90},
		},
		{
			name:     "exact half point margin",
			profile:  func(p *models.StudentProfile) { p.GPA = models.Float(3.8) },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 20, Total: 100},
		},
		{
			name:     "small margin just meets requirement",
			profile:  func(p *models.StudentProfile) { p.GPA = models.Float(3.4) },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 12, Total: 92},
		},
		{
			name:     "below minimum GPA scores nothing",
			profile:  func(p *models.StudentProfile) { p.GPA = models.Float(3.0) },
			expected: Breakdown{Budget: 30, Country: 25, Major: 25, Academic: 0, Total: 80},
		},
		{
			name: "everything poor",
			profile: func(p *models.StudentProfile) {
				p.GPA = models.Float(2.0)
				p.MajorInterests = []string{"Art"}
			},
			program: func(p *models.Program) {
				p.TuitionPerYear = 100000
				p.Institution.Country = "USA"
			},
			expected: Breakdown{Budget: 0, Country: 7.5, Major: 12.5, Academic: 0, Total: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := scenarioProfile()
			program := scenarioProgram()
			if tt.profile != nil {
				tt.profile(profile)
			}
			if tt.program != nil {
				tt.program(program)
			}

			got := ScoreBreakdown(profile, program)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.expected.Total, Score(profile, program))
		})
	}
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	scales := []string{Scale4, Scale5, Scale100, "", "7"}
	countries := []string{"USA", "Canada", "UK", "Germany"}
	fields := []string{"Computer Science", "Data Science", "Mechanical Engineering", "Business"}

	optional := func(max float64) *float64 {
		if rng.Intn(3) == 0 {
			return nil
		}
		return models.Float(rng.Float64() * max)
	}

	for i := 0; i < 2000; i++ {
		profile := &models.StudentProfile{
			TargetCountries: []string{countries[rng.Intn(len(countries))]},
			DegreeLevel:     "Masters",
			MajorInterests:  []string{fields[rng.Intn(len(fields))]},
			GPA:             optional(100),
			GPAScale:        scales[rng.Intn(len(scales))],
			BudgetMin:       optional(60000),
			BudgetMax:       optional(80000),
		}
		program := &models.Program{
			ID:             "p",
			DegreeLevel:    "Masters",
			FieldOfStudy:   fields[rng.Intn(len(fields))],
			TuitionPerYear: rng.Float64() * 120000,
			MinGPA:         optional(100),
			GPAScale:       scales[rng.Intn(len(scales))],
			Institution:    models.Institution{Country: countries[rng.Intn(len(countries))]},
		}

		score := Score(profile, program)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 73, roundHalfUp(72.5))
	assert.Equal(t, 72, roundHalfUp(72.4))
	assert.Equal(t, 0, roundHalfUp(0))
	assert.Equal(t, 100, roundHalfUp(100))
}

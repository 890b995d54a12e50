package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"program-matching/internal/models"
)

func TestClassify(t *testing.T) {
	exceeding := scenarioProfile()
	exceeding.GPA = models.Float(3.8)

	noGPA := scenarioProfile()
	noGPA.GPA = nil

	tests := []struct {
		name     string
		fitScore int
		profile  *models.StudentProfile
		expected models.Tier
	}{
		{"scenario A: high score without margin is REACH", 96, scenarioProfile(), models.TierReach},
		{"high score with margin is SAFE", 96, exceeding, models.TierSafe},
		{"SAFE threshold", 70, exceeding, models.TierSafe},
		{"69 with margin is MATCH", 69, exceeding, models.TierMatch},
		{"MATCH lower bound", 50, scenarioProfile(), models.TierMatch},
		{"below MATCH", 49, scenarioProfile(), models.TierReach},
		{"70 without GPA data is REACH", 70, noGPA, models.TierReach},
		{"60 without GPA data is MATCH", 60, noGPA, models.TierMatch},
		{"zero score", 0, exceeding, models.TierReach},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.fitScore, tt.profile, scenarioProgram()))
		})
	}
}

func TestClassify_CrossScaleMargin(t *testing.T) {
	profile := scenarioProfile()
	profile.GPA = models.Float(95)
	profile.GPAScale = Scale100 // 3.8

	program := scenarioProgram()
	program.MinGPA = models.Float(3.75)
	program.GPAScale = Scale5 // 3.0

	assert.Equal(t, models.TierSafe, Classify(80, profile, program))
}

func TestClassify_Deterministic(t *testing.T) {
	profile := scenarioProfile()
	program := scenarioProgram()
	first := Classify(75, profile, program)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Classify(75, profile, program))
	}
}

package matching

import "program-matching/internal/models"

const (
	safeScoreThreshold  = 70
	matchScoreThreshold = 50
	safeGPAMargin       = 0.5
)

// Classify assigns a tier. SAFE needs both a high score and a GPA at least half
// a point above the minimum; a high score without that margin is REACH, not MATCH.
func Classify(fitScore int, profile *models.StudentProfile, program *models.Program) models.Tier {
	exceeds := false
	if student, required, ok := normalizedGPAs(profile, program); ok {
		exceeds = student >= required+safeGPAMargin
	}

	switch {
	case fitScore >= safeScoreThreshold && exceeds:
		return models.TierSafe
	case fitScore >= matchScoreThreshold && fitScore < safeScoreThreshold:
		return models.TierMatch
	default:
		return models.TierReach
	}
}

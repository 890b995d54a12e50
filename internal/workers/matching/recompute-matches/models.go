// internal/workers/matching/recompute-matches/models.go
package recomputematches

import (
	"program-matching/internal/common/validation"
	"program-matching/internal/models"
)

type Input struct {
	UserID string `json:"userId"`
	// Profile is nil when the job carries no profile and it has to be loaded.
	Profile *models.StudentProfile `json:"profile,omitempty"`
}

type Output struct {
	UserID           string            `json:"userId"`
	TotalPrograms    int               `json:"totalPrograms"`
	EligiblePrograms int               `json:"eligiblePrograms"`
	SkipReasons      map[string]int    `json:"skipReasons"`
	Stats            models.MatchStats `json:"stats"`
	DurationMs       int64             `json:"durationMs"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"profile": {
			"type": ["object", "null"],
			"properties": {
				"citizenshipCountry": {"type": ["string", "null"]},
				"residenceCountry":   {"type": ["string", "null"]},
				"targetCountries":    {"type": ["array", "null"], "items": {"type": "string"}},
				"degreeLevel":        {"type": ["string", "null"]},
				"majorInterests":     {"type": ["array", "null"], "items": {"type": "string"}},
				"gpa":                {"type": ["number", "string", "null"]},
				"gpaScale":           {"type": ["string", "null"]},
				"englishTestType":    {"type": ["string", "null"]},
				"englishScore":       {"type": ["number", "string", "null"]},
				"budgetMin":          {"type": ["number", "string", "null"]},
				"budgetMax":          {"type": ["number", "string", "null"]},
				"intakeTerm":         {"type": ["string", "null"]},
				"intakeYear":         {"type": ["number", "string", "null"]}
			}
		}
	}
}`)

// profileFromVariables reads a profile leniently: numbers may arrive as
// strings and unusable values count as absent.
func profileFromVariables(userID string, raw map[string]interface{}) *models.StudentProfile {
	return &models.StudentProfile{
		UserID:             userID,
		CitizenshipCountry: stringValue(raw["citizenshipCountry"]),
		ResidenceCountry:   stringValue(raw["residenceCountry"]),
		TargetCountries:    stringSlice(raw["targetCountries"]),
		DegreeLevel:        stringValue(raw["degreeLevel"]),
		MajorInterests:     stringSlice(raw["majorInterests"]),
		GPA:                validation.Number(raw["gpa"]),
		GPAScale:           stringValue(raw["gpaScale"]),
		EnglishTestType:    stringValue(raw["englishTestType"]),
		EnglishScore:       validation.Number(raw["englishScore"]),
		BudgetMin:          validation.Number(raw["budgetMin"]),
		BudgetMax:          validation.Number(raw["budgetMax"]),
		IntakeTerm:         stringValue(raw["intakeTerm"]),
		IntakeYear:         validation.Integer(raw["intakeYear"]),
	}
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

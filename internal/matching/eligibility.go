package matching

import (
	"time"

	"program-matching/internal/models"
)

// Reason names the first eligibility rule a program failed.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonDegreeMismatch Reason = "degree_mismatch"
	ReasonGPATooLow      Reason = "gpa_too_low"
	ReasonEnglishTooLow  Reason = "english_too_low"
	ReasonDeadlinePassed Reason = "deadline_passed"
)

// Reasons lists every skip reason in the order the rules are checked.
var Reasons = []Reason{ReasonDegreeMismatch, ReasonGPATooLow, ReasonEnglishTooLow, ReasonDeadlinePassed}

// CheckEligibility returns the first rule the program fails, or ReasonNone.
// Requirements whose data is missing on either side are not enforced.
func CheckEligibility(profile *models.StudentProfile, program *models.Program, now time.Time) Reason {
	if profile.DegreeLevel != program.DegreeLevel {
		return ReasonDegreeMismatch
	}

	if student, required, ok := normalizedGPAs(profile, program); ok && student < required {
		return ReasonGPATooLow
	}

	if models.Provided(program.MinEnglishScore) &&
		models.Provided(profile.EnglishScore) &&
		profile.EnglishTestType == program.EnglishTestType &&
		*profile.EnglishScore < *program.MinEnglishScore {
		return ReasonEnglishTooLow
	}

	if program.Deadline != nil && program.Deadline.Before(now) {
		return ReasonDeadlinePassed
	}

	return ReasonNone
}

// IsEligible reports whether the program passes every eligibility rule at now.
func IsEligible(profile *models.StudentProfile, program *models.Program, now time.Time) bool {
	return CheckEligibility(profile, program, now) == ReasonNone
}

// normalizedGPAs returns the profile GPA and the program minimum on the 4.0 scale.
// ok is false when either side lacks a value or a scale.
func normalizedGPAs(profile *models.StudentProfile, program *models.Program) (student, required float64, ok bool) {
	if !profile.HasGPA() || !program.HasMinGPA() {
		return 0, 0, false
	}
	return Normalize(*profile.GPA, profile.GPAScale), Normalize(*program.MinGPA, program.GPAScale), true
}

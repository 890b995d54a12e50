package models

import "time"

// StudentProfile is the academic and financial profile a student is matched on.
// Optional numeric fields are pointers; a nil or zero value means "not provided".
type StudentProfile struct {
	UserID             string   `json:"userId,omitempty"`
	CitizenshipCountry string   `json:"citizenshipCountry"`
	ResidenceCountry   string   `json:"residenceCountry"`
	TargetCountries    []string `json:"targetCountries"`
	DegreeLevel        string   `json:"degreeLevel"`
	MajorInterests     []string `json:"majorInterests"`

	GPA      *float64 `json:"gpa,omitempty"`
	GPAScale string   `json:"gpaScale,omitempty"`

	EnglishTestType string   `json:"englishTestType,omitempty"`
	EnglishScore    *float64 `json:"englishScore,omitempty"`

	BudgetMin *float64 `json:"budgetMin,omitempty"`
	BudgetMax *float64 `json:"budgetMax,omitempty"`

	IntakeTerm string `json:"intakeTerm,omitempty"`
	IntakeYear *int   `json:"intakeYear,omitempty"`

	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// HasGPA reports whether both the GPA and its scale are provided.
func (p *StudentProfile) HasGPA() bool {
	return Provided(p.GPA) && p.GPAScale != ""
}

// TargetsCountry reports whether country is one of the target countries.
func (p *StudentProfile) TargetsCountry(country string) bool {
	for _, c := range p.TargetCountries {
		if c == country {
			return true
		}
	}
	return false
}

// Provided reports whether an optional number carries a usable value.
// Zero is treated as absent.
func Provided(v *float64) bool {
	return v != nil && *v != 0
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

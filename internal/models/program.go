package models

import "time"

type Institution struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// Program is a catalog entry joined with its institution.
type Program struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	DegreeLevel     string     `json:"degreeLevel"`
	FieldOfStudy    string     `json:"fieldOfStudy"`
	TuitionPerYear  float64    `json:"tuitionPerYear"`
	MinGPA          *float64   `json:"minGpa,omitempty"`
	GPAScale        string     `json:"gpaScale,omitempty"`
	MinEnglishScore *float64   `json:"minEnglishScore,omitempty"`
	EnglishTestType string     `json:"englishTestType,omitempty"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	Tags            []string   `json:"tags,omitempty"`

	Institution Institution `json:"institution"`
}

// HasMinGPA reports whether both the minimum GPA and its scale are declared.
func (p *Program) HasMinGPA() bool {
	return Provided(p.MinGPA) && p.GPAScale != ""
}

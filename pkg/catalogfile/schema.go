// pkg/catalogfile/schema.go
package catalogfile

// File is the on-disk catalog seed: institutions plus the programs they offer.
type File struct {
	Version      string        `json:"version"`
	Institutions []Institution `json:"institutions"`
	Programs     []Program     `json:"programs"`
}

type Institution struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// Program references its institution by id. Deadline is a YYYY-MM-DD date.
type Program struct {
	ID              string   `json:"id"`
	InstitutionID   string   `json:"institutionId"`
	Name            string   `json:"name"`
	DegreeLevel     string   `json:"degreeLevel"`
	FieldOfStudy    string   `json:"fieldOfStudy"`
	TuitionPerYear  float64  `json:"tuitionPerYear"`
	MinGPA          *float64 `json:"minGpa,omitempty"`
	GPAScale        string   `json:"gpaScale,omitempty"`
	MinEnglishScore *float64 `json:"minEnglishScore,omitempty"`
	EnglishTestType string   `json:"englishTestType,omitempty"`
	Deadline        string   `json:"deadline,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// pkg/catalogfile/catalogfile.go
package catalogfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"program-matching/internal/matching"
	"program-matching/internal/models"
)

const DateLayout = "2006-01-02"

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &f, nil
}

// Validate reports every problem found in the file, not just the first.
func (f *File) Validate() error {
	var errs []error
	if len(f.Programs) == 0 {
		errs = append(errs, errors.New("catalog contains no programs"))
	}

	institutions := make(map[string]bool, len(f.Institutions))
	for i, inst := range f.Institutions {
		switch {
		case inst.ID == "":
			errs = append(errs, fmt.Errorf("institutions[%d]: missing id", i))
		case institutions[inst.ID]:
			errs = append(errs, fmt.Errorf("duplicate institution id: %s", inst.ID))
		}
		if inst.Name == "" || inst.Country == "" {
			errs = append(errs, fmt.Errorf("institution %q: name and country are required", inst.ID))
		}
		institutions[inst.ID] = true
	}

	programs := make(map[string]bool, len(f.Programs))
	for i, p := range f.Programs {
		ref := p.ID
		if ref == "" {
			ref = fmt.Sprintf("programs[%d]", i)
			errs = append(errs, fmt.Errorf("%s: missing id", ref))
		} else if programs[p.ID] {
			errs = append(errs, fmt.Errorf("duplicate program id: %s", p.ID))
		}
		programs[p.ID] = true

		if !institutions[p.InstitutionID] {
			errs = append(errs, fmt.Errorf("program %s: unknown institution %q", ref, p.InstitutionID))
		}
		if p.Name == "" || p.DegreeLevel == "" {
			errs = append(errs, fmt.Errorf("program %s: name and degreeLevel are required", ref))
		}
		if p.TuitionPerYear < 0 {
			errs = append(errs, fmt.Errorf("program %s: negative tuition", ref))
		}
		if p.MinGPA != nil && !validScale(p.GPAScale) {
			errs = append(errs, fmt.Errorf("program %s: minGpa needs gpaScale 4.0, 5.0 or 100, got %q", ref, p.GPAScale))
		}
		if p.MinEnglishScore != nil && p.EnglishTestType == "" {
			errs = append(errs, fmt.Errorf("program %s: minEnglishScore needs englishTestType", ref))
		}
		if p.Deadline != "" {
			if _, err := time.Parse(DateLayout, p.Deadline); err != nil {
				errs = append(errs, fmt.Errorf("program %s: deadline must be YYYY-MM-DD: %w", ref, err))
			}
		}
	}

	return errors.Join(errs...)
}

func validScale(scale string) bool {
	switch scale {
	case matching.Scale4, matching.Scale5, matching.Scale100:
		return true
	}
	return false
}

// Resolve validates the file and returns it in model form, with each
// program joined to its institution and deadlines at midnight UTC.
func (f *File) Resolve() ([]models.Institution, []models.Program, error) {
	if err := f.Validate(); err != nil {
		return nil, nil, err
	}

	institutions := make([]models.Institution, 0, len(f.Institutions))
	byID := make(map[string]models.Institution, len(f.Institutions))
	for _, inst := range f.Institutions {
		m := models.Institution{ID: inst.ID, Name: inst.Name, Country: inst.Country, City: inst.City}
		institutions = append(institutions, m)
		byID[inst.ID] = m
	}

	programs := make([]models.Program, 0, len(f.Programs))
	for _, p := range f.Programs {
		program := models.Program{
			ID:              p.ID,
			Name:            p.Name,
			DegreeLevel:     p.DegreeLevel,
			FieldOfStudy:    p.FieldOfStudy,
			TuitionPerYear:  p.TuitionPerYear,
			MinGPA:          p.MinGPA,
			GPAScale:        p.GPAScale,
			MinEnglishScore: p.MinEnglishScore,
			EnglishTestType: p.EnglishTestType,
			Tags:            p.Tags,
			Institution:     byID[p.InstitutionID],
		}
		if p.Deadline != "" {
			d, _ := time.Parse(DateLayout, p.Deadline)
			program.Deadline = &d
		}
		programs = append(programs, program)
	}
	return institutions, programs, nil
}

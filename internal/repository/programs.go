// Package repository implements PostgreSQL storage for the catalog, student
// profiles and match sets.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"program-matching/internal/common/database"
	"program-matching/internal/models"
)

const listProgramsQuery = `
	SELECT p.id, p.name, p.degree_level, p.field_of_study, p.tuition_per_year,
	       p.min_gpa, p.gpa_scale, p.min_english_score, p.english_test_type,
	       p.deadline, p.tags,
	       i.id, i.name, i.country, i.city
	FROM programs p
	JOIN institutions i ON i.id = p.institution_id
	ORDER BY p.id`

const upsertInstitutionQuery = `
	INSERT INTO institutions (id, name, country, city)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, country = EXCLUDED.country, city = EXCLUDED.city`

const upsertProgramQuery = `
	INSERT INTO programs (id, institution_id, name, degree_level, field_of_study,
	                      tuition_per_year, min_gpa, gpa_scale, min_english_score,
	                      english_test_type, deadline, tags)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE
	SET institution_id = EXCLUDED.institution_id,
	    name = EXCLUDED.name,
	    degree_level = EXCLUDED.degree_level,
	    field_of_study = EXCLUDED.field_of_study,
	    tuition_per_year = EXCLUDED.tuition_per_year,
	    min_gpa = EXCLUDED.min_gpa,
	    gpa_scale = EXCLUDED.gpa_scale,
	    min_english_score = EXCLUDED.min_english_score,
	    english_test_type = EXCLUDED.english_test_type,
	    deadline = EXCLUDED.deadline,
	    tags = EXCLUDED.tags`

type ProgramRepository struct {
	db *sql.DB
}

func NewProgramRepository(db *sql.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// ListPrograms returns the whole catalog joined with institutions.
func (r *ProgramRepository) ListPrograms(ctx context.Context) ([]models.Program, error) {
	rows, err := r.db.QueryContext(ctx, listProgramsQuery)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	programs := make([]models.Program, 0)
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	return programs, nil
}

// UpsertCatalog writes institutions and programs in a single transaction.
func (r *ProgramRepository) UpsertCatalog(ctx context.Context, institutions []models.Institution, programs []models.Program) error {
	return database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		for _, inst := range institutions {
			if _, err := tx.ExecContext(ctx, upsertInstitutionQuery,
				inst.ID, inst.Name, inst.Country, inst.City); err != nil {
				return fmt.Errorf("upsert institution %s: %w", inst.ID, err)
			}
		}
		for _, p := range programs {
			if _, err := tx.ExecContext(ctx, upsertProgramQuery,
				p.ID, p.Institution.ID, p.Name, p.DegreeLevel, p.FieldOfStudy, p.TuitionPerYear,
				nullFloat(p.MinGPA), nullString(p.GPAScale), nullFloat(p.MinEnglishScore),
				nullString(p.EnglishTestType), nullTime(p.Deadline), pq.Array(tagsOrEmpty(p.Tags)),
			); err != nil {
				return fmt.Errorf("upsert program %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanProgram reads the column list shared by listProgramsQuery and the match listing.
func scanProgram(row rowScanner, extra ...any) (models.Program, error) {
	var (
		p               models.Program
		minGPA          sql.NullFloat64
		gpaScale        sql.NullString
		minEnglishScore sql.NullFloat64
		englishTestType sql.NullString
		deadline        sql.NullTime
		tags            []string
	)

	dest := append(extra,
		&p.ID, &p.Name, &p.DegreeLevel, &p.FieldOfStudy, &p.TuitionPerYear,
		&minGPA, &gpaScale, &minEnglishScore, &englishTestType,
		&deadline, pq.Array(&tags),
		&p.Institution.ID, &p.Institution.Name, &p.Institution.Country, &p.Institution.City,
	)
	if err := row.Scan(dest...); err != nil {
		return models.Program{}, err
	}

	p.MinGPA = floatPtr(minGPA)
	p.GPAScale = gpaScale.String
	p.MinEnglishScore = floatPtr(minEnglishScore)
	p.EnglishTestType = englishTestType.String
	if deadline.Valid {
		t := deadline.Time.UTC()
		p.Deadline = &t
	}
	p.Tags = tags
	return p, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"program-matching/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

const getProfileQuery = `
	SELECT user_id, citizenship_country, residence_country, target_countries,
	       degree_level, major_interests, gpa, gpa_scale, english_test_type,
	       english_score, budget_min, budget_max, intake_term, intake_year, updated_at
	FROM student_profiles
	WHERE user_id = $1`

const upsertProfileQuery = `
	INSERT INTO student_profiles (user_id, citizenship_country, residence_country,
	       target_countries, degree_level, major_interests, gpa, gpa_scale,
	       english_test_type, english_score, budget_min, budget_max, intake_term,
	       intake_year, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now())
	ON CONFLICT (user_id) DO UPDATE
	SET citizenship_country = EXCLUDED.citizenship_country,
	    residence_country = EXCLUDED.residence_country,
	    target_countries = EXCLUDED.target_countries,
	    degree_level = EXCLUDED.degree_level,
	    major_interests = EXCLUDED.major_interests,
	    gpa = EXCLUDED.gpa,
	    gpa_scale = EXCLUDED.gpa_scale,
	    english_test_type = EXCLUDED.english_test_type,
	    english_score = EXCLUDED.english_score,
	    budget_min = EXCLUDED.budget_min,
	    budget_max = EXCLUDED.budget_max,
	    intake_term = EXCLUDED.intake_term,
	    intake_year = EXCLUDED.intake_year,
	    updated_at = now()`

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile loads a student profile. It returns ErrProfileNotFound when the
// user has none.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	var (
		p               models.StudentProfile
		gpa             sql.NullFloat64
		gpaScale        sql.NullString
		englishTestType sql.NullString
		englishScore    sql.NullFloat64
		budgetMin       sql.NullFloat64
		budgetMax       sql.NullFloat64
		intakeTerm      sql.NullString
		intakeYear      sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, getProfileQuery, userID).Scan(
		&p.UserID, &p.CitizenshipCountry, &p.ResidenceCountry, pq.Array(&p.TargetCountries),
		&p.DegreeLevel, pq.Array(&p.MajorInterests), &gpa, &gpaScale, &englishTestType,
		&englishScore, &budgetMin, &budgetMax, &intakeTerm, &intakeYear, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	p.GPA = floatPtr(gpa)
	p.GPAScale = gpaScale.String
	p.EnglishTestType = englishTestType.String
	p.EnglishScore = floatPtr(englishScore)
	p.BudgetMin = floatPtr(budgetMin)
	p.BudgetMax = floatPtr(budgetMax)
	p.IntakeTerm = intakeTerm.String
	if intakeYear.Valid {
		year := int(intakeYear.Int64)
		p.IntakeYear = &year
	}
	return &p, nil
}

// UpsertProfile creates or replaces the profile of p.UserID.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, p *models.StudentProfile) error {
	var intakeYear sql.NullInt64
	if p.IntakeYear != nil {
		intakeYear = sql.NullInt64{Int64: int64(*p.IntakeYear), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, upsertProfileQuery,
		p.UserID, p.CitizenshipCountry, p.ResidenceCountry, pq.Array(tagsOrEmpty(p.TargetCountries)),
		p.DegreeLevel, pq.Array(tagsOrEmpty(p.MajorInterests)), nullFloat(p.GPA), nullString(p.GPAScale),
		nullString(p.EnglishTestType), nullFloat(p.EnglishScore), nullFloat(p.BudgetMin),
		nullFloat(p.BudgetMax), nullString(p.IntakeTerm), intakeYear,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

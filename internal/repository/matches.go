package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"program-matching/internal/common/database"
	apperrors "program-matching/internal/common/errors"
	"program-matching/internal/models"
)

// insertBatchSize keeps each INSERT well under the 65535 bind parameter limit.
const insertBatchSize = 1000

const matchColumns = 6

const deleteMatchesQuery = `DELETE FROM matches WHERE user_id = $1`

const matchStatsQuery = `
	SELECT COUNT(*),
	       COUNT(*) FILTER (WHERE tier = 'SAFE'),
	       COUNT(*) FILTER (WHERE tier = 'MATCH'),
	       COUNT(*) FILTER (WHERE tier = 'REACH')
	FROM matches
	WHERE user_id = $1`

const listMatchesSelect = `
	SELECT m.id, m.user_id, m.program_id, m.fit_score, m.tier, m.created_at,
	       p.id, p.name, p.degree_level, p.field_of_study, p.tuition_per_year,
	       p.min_gpa, p.gpa_scale, p.min_english_score, p.english_test_type,
	       p.deadline, p.tags,
	       i.id, i.name, i.country, i.city
	FROM matches m
	JOIN programs p ON p.id = m.program_id
	JOIN institutions i ON i.id = p.institution_id
	WHERE m.user_id = $1`

type MatchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// ReplaceMatches swaps the user's match set in one transaction. A per-user
// advisory lock serializes concurrent replacements for the same user.
func (r *MatchRepository) ReplaceMatches(ctx context.Context, userID string, matches []models.Match) error {
	return database.WithTx(ctx, r.db, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := database.AdvisoryXactLock(ctx, tx, "matches:"+userID); err != nil {
			return apperrors.NewMatchDeleteFailedError(err)
		}
		if err := DeleteMatches(ctx, tx, userID); err != nil {
			return apperrors.NewMatchDeleteFailedError(err)
		}
		if len(matches) == 0 {
			return nil
		}
		if err := InsertMatches(ctx, tx, matches); err != nil {
			return apperrors.NewMatchInsertFailedError(err)
		}
		return nil
	})
}

// DeleteMatches removes every stored match of the user.
func DeleteMatches(ctx context.Context, q database.DBTX, userID string) error {
	if _, err := q.ExecContext(ctx, deleteMatchesQuery, userID); err != nil {
		return fmt.Errorf("delete matches: %w", err)
	}
	return nil
}

// InsertMatches bulk-inserts matches with multi-row INSERT statements.
func InsertMatches(ctx context.Context, q database.DBTX, matches []models.Match) error {
	for start := 0; start < len(matches); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(matches) {
			end = len(matches)
		}
		query, args := buildInsertMatches(matches[start:end])
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert matches: %w", err)
		}
	}
	return nil
}

func buildInsertMatches(batch []models.Match) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO matches (id, user_id, program_id, fit_score, tier, created_at) VALUES ")

	args := make([]any, 0, len(batch)*matchColumns)
	for i, m := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * matchColumns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, m.ID, m.UserID, m.ProgramID, m.FitScore, string(m.Tier), m.CreatedAt)
	}
	return sb.String(), args
}

// ListMatches returns the user's matches joined with program details,
// highest fit score first.
func (r *MatchRepository) ListMatches(ctx context.Context, userID string, filter models.MatchFilter) ([]models.MatchWithProgram, error) {
	query, args := buildListMatches(userID, filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	out := make([]models.MatchWithProgram, 0)
	for rows.Next() {
		var (
			m    models.MatchWithProgram
			tier string
		)
		program, err := scanProgram(rows, &m.ID, &m.UserID, &m.ProgramID, &m.FitScore, &tier, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		m.Tier = models.Tier(tier)
		m.Program = program
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}

func buildListMatches(userID string, filter models.MatchFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(listMatchesSelect)
	args := []any{userID}

	add := func(clause string, v any) {
		args = append(args, v)
		fmt.Fprintf(&sb, " AND "+clause, len(args))
	}
	if filter.Country != "" {
		add("i.country = $%d", filter.Country)
	}
	if filter.Tier != "" {
		add("m.tier = $%d", string(filter.Tier))
	}
	if filter.MinTuition != nil {
		add("p.tuition_per_year >= $%d", *filter.MinTuition)
	}
	if filter.MaxTuition != nil {
		add("p.tuition_per_year <= $%d", *filter.MaxTuition)
	}

	sb.WriteString(" ORDER BY m.fit_score DESC, m.program_id")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args
}

// MatchStats counts stored matches per tier.
func (r *MatchRepository) MatchStats(ctx context.Context, userID string) (*models.MatchStats, error) {
	var stats models.MatchStats
	err := r.db.QueryRowContext(ctx, matchStatsQuery, userID).
		Scan(&stats.Total, &stats.Safe, &stats.Match, &stats.Reach)
	if err != nil {
		return nil, fmt.Errorf("match stats: %w", err)
	}
	return &stats, nil
}

package matching

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "program-matching/internal/common/errors"
	"program-matching/internal/common/logger"
	"program-matching/internal/models"
)

const tracerName = "program-matching/internal/matching"

// Catalog provides every program with its institution.
type Catalog interface {
	ListPrograms(ctx context.Context) ([]models.Program, error)
}

// MatchStore persists match sets. ReplaceMatches must swap the user's whole
// set atomically and skip the insert when matches is empty.
type MatchStore interface {
	ReplaceMatches(ctx context.Context, userID string, matches []models.Match) error
	ListMatches(ctx context.Context, userID string, filter models.MatchFilter) ([]models.MatchWithProgram, error)
	MatchStats(ctx context.Context, userID string) (*models.MatchStats, error)
}

// Recorder receives the outcome of every recomputation.
type Recorder interface {
	ObserveRecompute(result *RecomputeResult, duration time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObserveRecompute(*RecomputeResult, time.Duration, error) {}

// RecomputeResult summarizes one recomputation.
type RecomputeResult struct {
	UserID           string            `json:"userId"`
	TotalPrograms    int               `json:"totalPrograms"`
	EligiblePrograms int               `json:"eligiblePrograms"`
	SkipReasons      map[string]int    `json:"skipReasons"`
	Stats            models.MatchStats `json:"stats"`
	Matches          []models.Match    `json:"-"`
}

// Service recomputes and queries stored match sets.
type Service struct {
	catalog     Catalog
	store       MatchStore
	logger      logger.Logger
	recorder    Recorder
	tracer      trace.Tracer
	now         func() time.Time
	newID       func() string
	concurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for deadline checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithConcurrency bounds how many programs are evaluated at once.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

// WithRecorder reports each recompute to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithIDGenerator overrides how match ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService returns a Service reading programs from catalog and storing
// matches in store.
func NewService(catalog Catalog, store MatchStore, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:     catalog,
		store:       store,
		logger:      log.WithFields(map[string]interface{}{"component": "matching"}),
		recorder:    noopRecorder{},
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
		newID:       uuid.NewString,
		concurrency: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recompute regenerates the user's full match set from the current catalog.
// On any error the previously stored set is left untouched.
func (s *Service) Recompute(ctx context.Context, userID string, profile *models.StudentProfile) (result *RecomputeResult, err error) {
	start := time.Now()
	defer func() {
		s.recorder.ObserveRecompute(result, time.Since(start), err)
	}()

	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}
	if profile == nil {
		return nil, apperrors.NewInvalidInputError("profile is required")
	}

	ctx, span := s.tracer.Start(ctx, "matching.Recompute", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("profile.degree_level", profile.DegreeLevel),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := s.logger.WithFields(map[string]interface{}{"userId": userID})

	programs, err := s.listPrograms(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("matching started", map[string]interface{}{
		"totalPrograms":   len(programs),
		"degreeLevel":     profile.DegreeLevel,
		"targetCountries": profile.TargetCountries,
	})

	eval, err := s.evaluate(ctx, profile, programs)
	if err != nil {
		return nil, err
	}

	matches := make([]models.Match, 0, len(eval.Candidates))
	createdAt := s.now().UTC()
	for _, c := range eval.Candidates {
		matches = append(matches, models.Match{
			ID:        s.newID(),
			UserID:    userID,
			ProgramID: c.ProgramID,
			FitScore:  c.FitScore,
			Tier:      c.Tier,
			CreatedAt: createdAt,
		})
	}

	if err := s.replace(ctx, userID, matches); err != nil {
		return nil, err
	}

	skipReasons := make(map[string]int, len(eval.SkipReasons))
	for reason, n := range eval.SkipReasons {
		skipReasons[string(reason)] = n
	}

	result = &RecomputeResult{
		UserID:           userID,
		TotalPrograms:    len(programs),
		EligiblePrograms: len(matches),
		SkipReasons:      skipReasons,
		Stats:            eval.Stats(),
		Matches:          matches,
	}

	log.Info("matching finished", map[string]interface{}{
		"eligiblePrograms": result.EligiblePrograms,
		"skipReasons":      skipReasons,
		"safe":             result.Stats.Safe,
		"match":            result.Stats.Match,
		"reach":            result.Stats.Reach,
	})

	return result, nil
}

func (s *Service) listPrograms(ctx context.Context) ([]models.Program, error) {
	ctx, span := s.tracer.Start(ctx, "matching.ListPrograms")
	defer span.End()

	programs, err := s.catalog.ListPrograms(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, wrapStoreError(err, apperrors.NewCatalogFetchFailedError)
	}
	span.SetAttributes(attribute.Int("catalog.size", len(programs)))
	return programs, nil
}

func (s *Service) evaluate(ctx context.Context, profile *models.StudentProfile, programs []models.Program) (*Evaluation, error) {
	ctx, span := s.tracer.Start(ctx, "matching.Evaluate")
	defer span.End()

	eval, err := Evaluate(ctx, profile, programs, s.now(), s.concurrency)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("matching.eligible", len(eval.Candidates)))
	return eval, nil
}

func (s *Service) replace(ctx context.Context, userID string, matches []models.Match) error {
	ctx, span := s.tracer.Start(ctx, "matching.ReplaceMatches", trace.WithAttributes(
		attribute.Int("matches.count", len(matches)),
	))
	defer span.End()

	if err := s.store.ReplaceMatches(ctx, userID, matches); err != nil {
		span.RecordError(err)
		return wrapStoreError(err, apperrors.NewMatchInsertFailedError)
	}
	return nil
}

// ListMatches returns the user's matches, best fit first.
func (s *Service) ListMatches(ctx context.Context, userID string, filter models.MatchFilter) ([]models.MatchWithProgram, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}
	if filter.Tier != "" && !filter.Tier.Valid() {
		return nil, apperrors.NewInvalidInputError("unknown tier: " + string(filter.Tier))
	}

	matches, err := s.store.ListMatches(ctx, userID, filter)
	if err != nil {
		return nil, wrapStoreError(err, func(err error) *apperrors.StandardError {
			return apperrors.NewMatchQueryFailedError("list_matches", err)
		})
	}
	return matches, nil
}

// MatchStats counts the user's stored matches per tier.
func (s *Service) MatchStats(ctx context.Context, userID string) (*models.MatchStats, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewInvalidInputError("userId is required")
	}

	stats, err := s.store.MatchStats(ctx, userID)
	if err != nil {
		return nil, wrapStoreError(err, func(err error) *apperrors.StandardError {
			return apperrors.NewMatchQueryFailedError("match_stats", err)
		})
	}
	return stats, nil
}

// wrapStoreError keeps StandardErrors and cancellations as they are, turns
// deadlines into timeouts and wraps everything else with wrap.
func wrapStoreError(err error, wrap func(error) *apperrors.StandardError) error {
	if _, ok := apperrors.AsStandardError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("storage", err)
	}
	return wrap(err)
}

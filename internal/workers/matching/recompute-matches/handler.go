// internal/workers/matching/recompute-matches/handler.go
package recomputematches

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"program-matching/internal/common/errors"
	"program-matching/internal/common/logger"
	"program-matching/internal/events"
	"program-matching/internal/matching"
	"program-matching/internal/models"
	"program-matching/internal/repository"
)

const TaskType = "recompute-matches"

type Recomputer interface {
	Recompute(ctx context.Context, userID string, profile *models.StudentProfile) (*matching.RecomputeResult, error)
}

// ProfileStore loads stored profiles and saves the ones jobs carry inline.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
	SaveProfile(ctx context.Context, profile *models.StudentProfile) error
}

type StatsInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

type Handler struct {
	config       *Config
	matcher      Recomputer
	profiles     ProfileStore
	stats        StatsInvalidator
	publisher    events.Publisher
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(
	config *Config,
	matcher Recomputer,
	profiles ProfileStore,
	stats StatsInvalidator,
	publisher events.Publisher,
	log logger.Logger,
) *Handler {
	if publisher == nil || !config.PublishEvents {
		publisher = events.NoopPublisher{}
	}
	return &Handler{
		config:       config,
		matcher:      matcher,
		profiles:     profiles,
		stats:        stats,
		publisher:    publisher,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	h.completeJob(ctx, client, job, output)
	return nil
}

func parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}

	if result := inputSchema.ValidateInput(variables); !result.Valid {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("validation errors: %v", result.GetErrorMessages()))
	}

	input := &Input{UserID: variables["userId"].(string)}
	if raw, ok := variables["profile"].(map[string]interface{}); ok {
		input.Profile = profileFromVariables(input.UserID, raw)
		if err := validateBudget(input.Profile); err != nil {
			return nil, err
		}
	}
	return input, nil
}

func validateBudget(p *models.StudentProfile) error {
	if p.BudgetMin != nil && *p.BudgetMin < 0 {
		return errors.NewInvalidInputError("profile.budgetMin must not be negative")
	}
	if p.BudgetMax != nil && *p.BudgetMax < 0 {
		return errors.NewInvalidInputError("profile.budgetMax must not be negative")
	}
	return nil
}

// Execute recomputes the user's matches. An inline profile is saved before
// the recompute. Cache invalidation and event publishing are best effort
// once the new match set is stored.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	profile := input.Profile
	if profile == nil {
		var err error
		profile, err = h.loadProfile(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
	} else {
		profile.UserID = input.UserID
		if err := h.saveProfile(ctx, profile); err != nil {
			return nil, err
		}
	}

	result, err := h.matcher.Recompute(ctx, input.UserID, profile)
	if err != nil {
		return nil, err
	}

	if err := h.stats.Invalidate(ctx, input.UserID); err != nil {
		h.logger.Warn("stats cache invalidation failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
	}

	if err := h.publisher.PublishMatchesRecomputed(ctx, result); err != nil {
		h.logger.Warn("event publish failed", map[string]interface{}{
			"userId":    input.UserID,
			"eventType": events.TypeMatchesRecomputed,
			"error":     err.Error(),
		})
	}

	return &Output{
		UserID:           result.UserID,
		TotalPrograms:    result.TotalPrograms,
		EligiblePrograms: result.EligiblePrograms,
		SkipReasons:      result.SkipReasons,
		Stats:            result.Stats,
		DurationMs:       time.Since(start).Milliseconds(),
	}, nil
}

func (h *Handler) loadProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	profile, err := h.profiles.GetProfile(ctx, userID)
	if err == nil {
		profile.UserID = userID
		return profile, nil
	}
	if _, ok := errors.AsStandardError(err); ok {
		return nil, err
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return nil, err
	case stderrors.Is(err, repository.ErrProfileNotFound):
		return nil, errors.NewProfileNotFoundError(userID)
	case stderrors.Is(err, context.DeadlineExceeded):
		return nil, errors.NewTimeoutError("profile-store", err)
	default:
		return nil, errors.NewProfileFetchFailedError(err)
	}
}

func (h *Handler) saveProfile(ctx context.Context, profile *models.StudentProfile) error {
	err := h.profiles.SaveProfile(ctx, profile)
	if err == nil {
		return nil
	}
	if _, ok := errors.AsStandardError(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return err
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewTimeoutError("profile-store", err)
	default:
		return errors.NewProfileSaveFailedError(err)
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":           job.Key,
		"userId":           output.UserID,
		"eligiblePrograms": output.EligiblePrograms,
		"durationMs":       output.DurationMs,
	})
}

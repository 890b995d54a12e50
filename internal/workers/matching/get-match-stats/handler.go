// internal/workers/matching/get-match-stats/handler.go
package getmatchstats

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"program-matching/internal/common/errors"
	"program-matching/internal/common/logger"
	"program-matching/internal/models"
)

const TaskType = "get-match-stats"

type StatsSource interface {
	MatchStats(ctx context.Context, userID string) (*models.MatchStats, error)
}

// StatsCache is a read-through cache in front of StatsSource. Get returns
// nil, nil on a miss.
type StatsCache interface {
	Get(ctx context.Context, userID string) (*models.MatchStats, error)
	Set(ctx context.Context, userID string, stats *models.MatchStats) error
}

type Handler struct {
	config       *Config
	source       StatsSource
	cache        StatsCache
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, source StatsSource, cache StatsCache, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		source:       source,
		cache:        cache,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
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

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}

	h.logger.Debug("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"userId": input.UserID,
		"cached": output.Cached,
	})
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
	return &Input{UserID: variables["userId"].(string)}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	cached, err := h.cache.Get(ctx, input.UserID)
	if err != nil {
		h.logger.Warn("stats cache read failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
	}
	if cached != nil {
		return toOutput(cached, true), nil
	}

	stats, err := h.source.MatchStats(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if err := h.cache.Set(ctx, input.UserID, stats); err != nil {
		h.logger.Warn("stats cache write failed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err.Error(),
		})
	}
	return toOutput(stats, false), nil
}

func toOutput(stats *models.MatchStats, cached bool) *Output {
	return &Output{
		Total:  stats.Total,
		Safe:   stats.Safe,
		Match:  stats.Match,
		Reach:  stats.Reach,
		Cached: cached,
	}
}

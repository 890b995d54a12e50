// internal/workers/matching/list-matches/handler.go
package listmatches

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"program-matching/internal/common/errors"
	"program-matching/internal/common/logger"
	"program-matching/internal/models"
)

const TaskType = "list-matches"

type MatchLister interface {
	ListMatches(ctx context.Context, userID string, filter models.MatchFilter) ([]models.MatchWithProgram, error)
}

type Handler struct {
	config       *Config
	matches      MatchLister
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, matches MatchLister, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		matches:      matches,
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

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return err
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"userId": input.UserID,
		"count":  output.Count,
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

	filters, _ := variables["filters"].(map[string]interface{})
	return &Input{
		UserID: variables["userId"].(string),
		Filter: filterFromVariables(filters, variables["limit"]),
	}, nil
}

// Execute lists the stored matches, applying the default limit when the job sets none.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	filter := input.Filter
	if filter.Limit <= 0 {
		filter.Limit = h.config.DefaultLimit
	}

	matches, err := h.matches.ListMatches(ctx, input.UserID, filter)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []models.MatchWithProgram{}
	}

	return &Output{Matches: matches, Count: len(matches)}, nil
}

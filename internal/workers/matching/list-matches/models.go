// internal/workers/matching/list-matches/models.go
package listmatches

import (
	"strings"

	"program-matching/internal/common/validation"
	"program-matching/internal/models"
)

type Input struct {
	UserID string             `json:"userId"`
	Filter models.MatchFilter `json:"filters"`
}

type Output struct {
	Matches []models.MatchWithProgram `json:"matches"`
	Count   int                       `json:"count"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"filters": {
			"type": ["object", "null"],
			"properties": {
				"country":    {"type": ["string", "null"]},
				"tier":       {"type": ["string", "null"]},
				"minTuition": {"type": ["number", "string", "null"]},
				"maxTuition": {"type": ["number", "string", "null"]}
			}
		},
		"limit": {"type": ["number", "string", "null"]}
	}
}`)

func filterFromVariables(raw map[string]interface{}, limit interface{}) models.MatchFilter {
	filter := models.MatchFilter{}
	if raw != nil {
		filter.Country, _ = raw["country"].(string)
		if tier, ok := raw["tier"].(string); ok {
			filter.Tier = models.Tier(strings.ToUpper(strings.TrimSpace(tier)))
		}
		filter.MinTuition = validation.Number(raw["minTuition"])
		filter.MaxTuition = validation.Number(raw["maxTuition"])
	}
	if n := validation.Integer(limit); n != nil && *n > 0 {
		filter.Limit = *n
	}
	return filter
}

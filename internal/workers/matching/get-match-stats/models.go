// internal/workers/matching/get-match-stats/models.go
package getmatchstats

import "program-matching/internal/common/validation"

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	Total  int  `json:"total"`
	Safe   int  `json:"safe"`
	Match  int  `json:"match"`
	Reach  int  `json:"reach"`
	Cached bool `json:"cached"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1}
	}
}`)

package models

import "time"

type Tier string

const (
	TierSafe  Tier = "SAFE"
	TierMatch Tier = "MATCH"
	TierReach Tier = "REACH"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierSafe, TierMatch, TierReach:
		return true
	}
	return false
}

// Match is one (user, program) pairing with its score and tier.
type Match struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProgramID string    `json:"programId"`
	FitScore  int       `json:"fitScore"`
	Tier      Tier      `json:"tier"`
	CreatedAt time.Time `json:"createdAt"`
}

// MatchWithProgram is a stored match joined with program and institution details.
type MatchWithProgram struct {
	Match
	Program Program `json:"program"`
}

type MatchStats struct {
	Total int `json:"total"`
	Safe  int `json:"safe"`
	Match int `json:"match"`
	Reach int `json:"reach"`
}

// MatchFilter narrows a match listing. Zero values disable a filter.
type MatchFilter struct {
	Country    string   `json:"country,omitempty"`
	Tier       Tier     `json:"tier,omitempty"`
	MinTuition *float64 `json:"minTuition,omitempty"`
	MaxTuition *float64 `json:"maxTuition,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

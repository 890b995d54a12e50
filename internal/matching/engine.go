package matching

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"program-matching/internal/models"
)

// Candidate is an eligible program with its score and tier.
type Candidate struct {
	ProgramID string      `json:"programId"`
	FitScore  int         `json:"fitScore"`
	Tier      models.Tier `json:"tier"`
	Breakdown Breakdown   `json:"breakdown"`
}

// Evaluation is the outcome of running a profile against a catalog.
type Evaluation struct {
	Candidates  []Candidate    `json:"candidates"`
	SkipReasons map[Reason]int `json:"skipReasons"`
	Evaluated   int            `json:"evaluated"`
}

// Stats counts candidates per tier.
func (e *Evaluation) Stats() models.MatchStats {
	stats := models.MatchStats{Total: len(e.Candidates)}
	for _, c := range e.Candidates {
		switch c.Tier {
		case models.TierSafe:
			stats.Safe++
		case models.TierMatch:
			stats.Match++
		case models.TierReach:
			stats.Reach++
		}
	}
	return stats
}

type outcome struct {
	reason    Reason
	candidate Candidate
}

// Evaluate filters, scores and tiers every program. Work is spread over at most
// concurrency goroutines; candidates keep catalog order regardless.
func Evaluate(ctx context.Context, profile *models.StudentProfile, programs []models.Program, now time.Time, concurrency int) (*Evaluation, error) {
	outcomes := make([]outcome, len(programs))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i := range programs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = evaluateOne(profile, &programs[i], now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	eval := &Evaluation{
		Candidates:  make([]Candidate, 0, len(programs)),
		SkipReasons: make(map[Reason]int),
		Evaluated:   len(programs),
	}
	for _, o := range outcomes {
		if o.reason != ReasonNone {
			eval.SkipReasons[o.reason]++
			continue
		}
		eval.Candidates = append(eval.Candidates, o.candidate)
	}
	return eval, nil
}

func evaluateOne(profile *models.StudentProfile, program *models.Program, now time.Time) outcome {
	if reason := CheckEligibility(profile, program, now); reason != ReasonNone {
		return outcome{reason: reason}
	}

	breakdown := ScoreBreakdown(profile, program)
	return outcome{candidate: Candidate{
		ProgramID: program.ID,
		FitScore:  breakdown.Total,
		Tier:      Classify(breakdown.Total, profile, program),
		Breakdown: breakdown,
	}}
}

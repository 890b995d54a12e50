package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"program-matching/internal/matching"
	"program-matching/internal/models"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	MatchRecomputeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_recompute_total",
			Help: "Total number of match recomputations by status",
		},
		[]string{"status"},
	)

	MatchRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_recompute_duration_seconds",
			Help:    "Duration of a full match recomputation in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	MatchProgramsEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_programs_evaluated_total",
			Help: "Programs evaluated during recomputation by outcome",
		},
		[]string{"outcome"},
	)

	MatchProgramsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_programs_skipped_total",
			Help: "Programs skipped during recomputation by reason",
		},
		[]string{"reason"},
	)

	MatchTierAssigned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_tier_assigned_total",
			Help: "Matches stored per tier",
		},
		[]string{"tier"},
	)
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	OutcomeEligible = "eligible"
	OutcomeSkipped  = "skipped"
)

// MatchRecorder feeds recomputation outcomes into the match_* collectors.
type MatchRecorder struct{}

// NewMatchRecorder also exports every skip reason at zero so rate queries
// see the series before the first skip.
func NewMatchRecorder() *MatchRecorder {
	for _, reason := range matching.Reasons {
		MatchProgramsSkipped.WithLabelValues(string(reason))
	}
	return &MatchRecorder{}
}

func (MatchRecorder) ObserveRecompute(result *matching.RecomputeResult, duration time.Duration, err error) {
	MatchRecomputeDuration.Observe(duration.Seconds())
	if err != nil || result == nil {
		MatchRecomputeTotal.WithLabelValues(StatusError).Inc()
		return
	}
	MatchRecomputeTotal.WithLabelValues(StatusSuccess).Inc()

	MatchProgramsEvaluated.WithLabelValues(OutcomeEligible).Add(float64(result.EligiblePrograms))
	MatchProgramsEvaluated.WithLabelValues(OutcomeSkipped).Add(float64(result.TotalPrograms - result.EligiblePrograms))
	for reason, n := range result.SkipReasons {
		MatchProgramsSkipped.WithLabelValues(reason).Add(float64(n))
	}

	MatchTierAssigned.WithLabelValues(string(models.TierSafe)).Add(float64(result.Stats.Safe))
	MatchTierAssigned.WithLabelValues(string(models.TierMatch)).Add(float64(result.Stats.Match))
	MatchTierAssigned.WithLabelValues(string(models.TierReach)).Add(float64(result.Stats.Reach))
}

// ObserveJob records one finished job for taskType. An empty errorCode
// counts as a completion.
func ObserveJob(taskType string, duration time.Duration, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(duration.Seconds())
	if errorCode != "" {
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
		return
	}
	WorkerJobsCompleted.WithLabelValues(taskType).Inc()
}

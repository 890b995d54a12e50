package camunda

import (
	stderrors "errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"program-matching/internal/common/errors"
	"program-matching/internal/common/metrics"
	"program-matching/internal/common/observability"
)

type handlerFunc func(worker.JobClient, entities.Job) error

func (f handlerFunc) Handle(client worker.JobClient, job entities.Job) error {
	return f(client, job)
}

func testJob(key int64) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: key, Type: "get-match-stats"}}
}

func TestInstrument_RecordsOutcome(t *testing.T) {
	obs, err := observability.NewWithRegisterer("worker-test", promclient.NewRegistry())
	require.NoError(t, err)

	const taskType = "instrument-test"
	calls := 0
	wrapped := instrument(taskType, handlerFunc(func(_ worker.JobClient, job entities.Job) error {
		calls++
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
		if job.Key == 2 {
			return errors.NewMatchQueryFailedError("match_stats", stderrors.New("connection reset"))
		}
		return nil
	}), obs, zaptest.NewLogger(t))

	wrapped(nil, testJob(1))
	wrapped(nil, testJob(2))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "MATCH_QUERY_FAILED")))
}

// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"program-matching/internal/cache"
	"program-matching/internal/common/logger"
	"program-matching/internal/events"
	"program-matching/internal/matching"
	"program-matching/internal/models"
	"program-matching/internal/repository"
	gms "program-matching/internal/workers/matching/get-match-stats"
	lm "program-matching/internal/workers/matching/list-matches"
	rm "program-matching/internal/workers/matching/recompute-matches"
	"program-matching/pkg/catalogfile"
)

// TestMatchingPipeline runs the three workers against a real Postgres and
// Redis. Set E2E_POSTGRES_DSN and E2E_REDIS_ADDR to enable it.
func TestMatchingPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	dsn, redisAddr := os.Getenv("E2E_POSTGRES_DSN"), os.Getenv("E2E_REDIS_ADDR")
	if dsn == "" || redisAddr == "" {
		t.Skip("E2E_POSTGRES_DSN and E2E_REDIS_ADDR are not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.PingContext(ctx))

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	zapLog, _ := zap.NewDevelopment()
	log := logger.NewZapAdapter(zapLog)

	// --- Schema and catalog ---
	require.NoError(t, repository.RunMigrations(ctx, db))

	f, err := catalogfile.Load(filepath.Join("..", "..", "configs", "catalog.json"))
	require.NoError(t, err)
	institutions, programs, err := f.Resolve()
	require.NoError(t, err)

	programRepo := repository.NewProgramRepository(db)
	require.NoError(t, programRepo.UpsertCatalog(ctx, institutions, programs))

	stored, err := programRepo.ListPrograms(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(stored), len(programs))

	// --- Wiring ---
	userID := "e2e-" + time.Now().Format("20060102150405")
	service := matching.NewService(
		programRepo,
		repository.NewMatchRepository(db),
		log,
		matching.WithClock(func() time.Time { return time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC) }),
	)
	profileRepo := repository.NewProfileRepository(db)
	profiles := cache.NewCachedProfiles(cache.NewProfileCache(rdb, time.Minute), profileRepo, log)
	statsCache := cache.NewStatsCache(rdb, time.Minute)
	t.Cleanup(func() {
		_ = statsCache.Invalidate(context.Background(), userID)
		_ = cache.NewProfileCache(rdb, time.Minute).Invalidate(context.Background(), userID)
	})

	require.NoError(t, profileRepo.UpsertProfile(ctx, &models.StudentProfile{
		UserID:          userID,
		TargetCountries: []string{"Canada"},
		DegreeLevel:     "Masters",
		MajorInterests:  []string{"Computer Science"},
		GPA:             models.Float(3.5),
		GPAScale:        "4.0",
		EnglishTestType: "IELTS",
		EnglishScore:    models.Float(7.0),
		BudgetMax:       models.Float(30000),
	}))

	recompute := rm.NewHandler(&rm.Config{Timeout: time.Minute}, service, profiles, statsCache, events.NoopPublisher{}, log)
	list := lm.NewHandler(&lm.Config{Timeout: time.Minute, DefaultLimit: 50}, service, log)
	stats := gms.NewHandler(&gms.Config{Timeout: time.Minute}, service, statsCache, log)

	// --- recompute-matches ---
	out, err := recompute.Execute(ctx, &rm.Input{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, len(stored), out.TotalPrograms)
	assert.Equal(t, out.EligiblePrograms, out.Stats.Total)
	assert.Equal(t, out.Stats.Total, out.Stats.Safe+out.Stats.Match+out.Stats.Reach)
	require.Greater(t, out.EligiblePrograms, 0)

	skipped := 0
	for _, n := range out.SkipReasons {
		skipped += n
	}
	assert.Equal(t, out.TotalPrograms-out.EligiblePrograms, skipped)

	// Recomputing replaces rather than appends.
	again, err := recompute.Execute(ctx, &rm.Input{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, out.Stats, again.Stats)

	// --- list-matches ---
	listed, err := list.Execute(ctx, &lm.Input{UserID: userID, Filter: models.MatchFilter{Country: "Canada"}})
	require.NoError(t, err)
	require.Greater(t, listed.Count, 0)
	assert.LessOrEqual(t, listed.Count, out.EligiblePrograms)
	for i, m := range listed.Matches {
		assert.Equal(t, "Canada", m.Program.Institution.Country)
		if i > 0 {
			assert.GreaterOrEqual(t, listed.Matches[i-1].FitScore, m.FitScore)
		}
	}

	all, err := list.Execute(ctx, &lm.Input{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, out.EligiblePrograms, all.Count)

	top, err := list.Execute(ctx, &lm.Input{UserID: userID, Filter: models.MatchFilter{Limit: 1}})
	require.NoError(t, err)
	require.Len(t, top.Matches, 1)
	assert.Equal(t, all.Matches[0].ProgramID, top.Matches[0].ProgramID)

	// --- get-match-stats ---
	first, err := stats.Execute(ctx, &gms.Input{UserID: userID})
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, out.Stats.Total, first.Total)

	second, err := stats.Execute(ctx, &gms.Input{UserID: userID})
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Safe, second.Safe)

	// --- missing profile ---
	_, err = recompute.Execute(ctx, &rm.Input{UserID: userID + "-missing"})
	require.Error(t, err)
}

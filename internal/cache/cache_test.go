package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"program-matching/internal/common/logger"
	"program-matching/internal/models"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testProfile() *models.StudentProfile {
	return &models.StudentProfile{
		UserID:             "user-1",
		CitizenshipCountry: "India",
		ResidenceCountry:   "India",
		TargetCountries:    []string{"Canada"},
		DegreeLevel:        "Masters",
		MajorInterests:     []string{"Computer Science"},
		GPA:                models.Float(3.5),
		GPAScale:           "4.0",
		BudgetMax:          models.Float(40000),
	}
}

type fakeProfileStore struct {
	profile   *models.StudentProfile
	err       error
	upsertErr error
	calls     int
	upserted  []*models.StudentProfile
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	f.calls++
	return f.profile, f.err
}

func (f *fakeProfileStore) UpsertProfile(ctx context.Context, p *models.StudentProfile) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, p)
	f.profile = p
	return nil
}

func TestProfileCache_RoundTrip(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewProfileCache(client, 15*time.Minute)
	ctx := context.Background()

	got, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, testProfile()))
	assert.Equal(t, 15*time.Minute, mr.TTL(ProfileKey("user-1")))

	got, err = c.Get(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Masters", got.DegreeLevel)
	assert.Equal(t, 3.5, *got.GPA)
	assert.Nil(t, got.EnglishScore)

	require.NoError(t, c.Invalidate(ctx, "user-1"))
	assert.False(t, mr.Exists(ProfileKey("user-1")))
}

func TestProfileCache_Expires(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewProfileCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testProfile()))
	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProfileCache_CorruptEntry(t *testing.T) {
	mr, client := setupRedis(t)
	require.NoError(t, mr.Set(ProfileKey("user-1"), "{not json"))

	_, err := NewProfileCache(client, time.Minute).Get(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestStatsCache_RoundTrip(t *testing.T) {
	mr, client := setupRedis(t)
	c := NewStatsCache(client, 5*time.Minute)
	ctx := context.Background()

	stats := &models.MatchStats{Total: 6, Safe: 1, Match: 3, Reach: 2}
	require.NoError(t, c.Set(ctx, "user-1", stats))
	assert.Equal(t, 5*time.Minute, mr.TTL(StatsKey("user-1")))

	got, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	require.NoError(t, c.Invalidate(ctx, "user-1"))
	got, err = c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStatsCache_RedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewStatsCache(client, time.Minute)
	ctx := context.Background()

	mock.ExpectGet(StatsKey("user-1")).SetErr(errors.New("connection refused"))
	_, err := c.Get(ctx, "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	mock.ExpectDel(StatsKey("user-1")).SetErr(errors.New("connection refused"))
	err = c.Invalidate(ctx, "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalidate stats cache")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedProfiles_GetProfile(t *testing.T) {
	t.Run("miss loads from store and populates cache", func(t *testing.T) {
		mr, client := setupRedis(t)
		store := &fakeProfileStore{profile: testProfile()}
		profiles := NewCachedProfiles(NewProfileCache(client, time.Minute), store, logger.NewTestLogger(t))

		got, err := profiles.GetProfile(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, 1, store.calls)
		assert.True(t, mr.Exists(ProfileKey("user-1")))

		_, err = profiles.GetProfile(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, 1, store.calls, "second read should be served from cache")
	})

	t.Run("hit skips store", func(t *testing.T) {
		mr, client := setupRedis(t)
		data, err := json.Marshal(testProfile())
		require.NoError(t, err)
		require.NoError(t, mr.Set(ProfileKey("user-1"), string(data)))

		store := &fakeProfileStore{err: errors.New("must not be called")}
		profiles := NewCachedProfiles(NewProfileCache(client, time.Minute), store, logger.NewTestLogger(t))

		got, err := profiles.GetProfile(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"Canada"}, got.TargetCountries)
		assert.Zero(t, store.calls)
	})

	t.Run("redis unavailable falls back to store", func(t *testing.T) {
		data, err := json.Marshal(testProfile())
		require.NoError(t, err)

		client, mock := redismock.NewClientMock()
		mock.ExpectGet(ProfileKey("user-1")).SetErr(errors.New("connection refused"))
		mock.ExpectSet(ProfileKey("user-1"), data, time.Minute).SetErr(errors.New("connection refused"))

		store := &fakeProfileStore{profile: testProfile()}
		profiles := NewCachedProfiles(NewProfileCache(client, time.Minute), store, logger.NewTestLogger(t))

		got, err := profiles.GetProfile(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, 1, store.calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store error is returned", func(t *testing.T) {
		_, client := setupRedis(t)
		storeErr := errors.New("profile not found")
		profiles := NewCachedProfiles(NewProfileCache(client, time.Minute), &fakeProfileStore{err: storeErr}, logger.NewTestLogger(t))

		_, err := profiles.GetProfile(context.Background(), "user-1")
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestCachedProfiles_SaveProfile(t *testing.T) {
	t.Run("replaces a warm cache entry", func(t *testing.T) {
		_, client := setupRedis(t)
		store := &fakeProfileStore{profile: testProfile()}
		profiles := NewCachedProfiles(NewProfileCache(client, time.Minute), store, logger.NewTestLogger(t))
		ctx := context.Background()

		_, err := profiles.GetProfile(ctx, "user-1")
		require.NoError(t, err)

		updated := testProfile()
		updated.DegreeLevel = "Master"
		require.NoError(t, profiles.SaveProfile(ctx, updated))
		require.Len(t, store.upserted, 1)

		got, err := profiles.GetProfile(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Master", got.DegreeLevel)
		assert.Equal(t, 1, store.calls, "read after save should come from cache")
	})

	t.Run("store error leaves cache alone", func(t *testing.T) {
		mr, client := setupRedis(t)
		storeErr := errors.New("connection reset")
		profiles := NewCachedProfiles(NewProfileCache(client, time.Minute), &fakeProfileStore{upsertErr: storeErr}, logger.NewTestLogger(t))

		err := profiles.SaveProfile(context.Background(), testProfile())
		assert.ErrorIs(t, err, storeErr)
		assert.False(t, mr.Exists(ProfileKey("user-1")))
	})

	t.Run("failed cache write drops the entry", func(t *testing.T) {
		data, err := json.Marshal(testProfile())
		require.NoError(t, err)

		client, mock := redismock.NewClientMock()
		mock.ExpectSet(ProfileKey("user-1"), data, time.Minute).SetErr(errors.New("OOM"))
		mock.ExpectDel(ProfileKey("user-1")).SetVal(1)

		store := &fakeProfileStore{}
		profiles := NewCachedProfiles(NewProfileCache(client, time.Minute), store, logger.NewTestLogger(t))

		require.NoError(t, profiles.SaveProfile(context.Background(), testProfile()))
		assert.Len(t, store.upserted, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

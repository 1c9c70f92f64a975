package service

import (
	"context"
	"errors"
	"habit_tracker_backend/internal/analytics"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsightService_GetInsights(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewHabitRepository(db)
	require.NoError(t, repo.CreateBatch(habitsOf(
		testutil.Habit(1, "read", "2024-03-01", 1),
		testutil.Habit(1, "read", "2024-03-02", 1),
		testutil.Habit(1, "read", "2024-03-03", 1),
		testutil.Habit(1, "read", "2024-03-04", 0),
	)))

	cache := newFakeCache()
	svc := NewInsightService(repo, cache)
	svc.Now = fixedNow("2024-03-05T09:00:00Z")
	ctx := context.Background()

	insight, err := svc.GetInsights(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, analytics.RiskMedium, insight.RiskLevel)
	assert.Equal(t, 0.7, insight.PredictionScore)
	assert.Equal(t, "75.0%", insight.KeyMetrics.CompletionRate)
	assert.Equal(t, 3, insight.KeyMetrics.CurrentStreak)
	assert.Len(t, insight.StreakTimeline, 4)

	t.Run("served from cache", func(t *testing.T) {
		cached := &analytics.Insight{RiskLevel: analytics.RiskLow, PredictionScore: 0.85}
		require.NoError(t, cache.Set(ctx, 1, cached))

		got, err := svc.GetInsights(ctx, 1)
		require.NoError(t, err)
		assert.Same(t, cached, got)
	})

	t.Run("cache errors fall through to storage", func(t *testing.T) {
		cache.getErr = errors.New("redis down")
		defer func() { cache.getErr = nil }()

		got, err := svc.GetInsights(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, analytics.RiskMedium, got.RiskLevel)
	})

	t.Run("empty history", func(t *testing.T) {
		got, err := svc.GetInsights(ctx, 99)
		require.NoError(t, err)
		assert.Equal(t, analytics.RiskHigh, got.RiskLevel)
		assert.Equal(t, "0.0%", got.KeyMetrics.CompletionRate)
		assert.Empty(t, got.StreakTimeline)
	})
}

func TestInsightService_Preview(t *testing.T) {
	svc := NewInsightService(nil, nil)
	svc.Now = fixedNow("2024-03-05T09:00:00Z")

	insight := svc.Preview([]analytics.Record{
		{Date: testutil.Day("2024-03-02"), Status: analytics.StatusCompleted},
		{Date: testutil.Day("2024-03-01"), Status: analytics.StatusCompleted},
	})
	assert.Equal(t, analytics.RiskLow, insight.RiskLevel)
	assert.Equal(t, 2, insight.KeyMetrics.LongestStreak)
}

func TestInsightService_CompletionRateSince(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewHabitRepository(db)
	require.NoError(t, repo.CreateBatch(habitsOf(
		testutil.Habit(1, "read", "2024-01-01", 0),
		testutil.Habit(1, "read", "2024-03-01", 1),
		testutil.Habit(1, "read", "2024-03-02", 0),
	)))
	svc := NewInsightService(repo, nil)

	rate, ok, err := svc.CompletionRateSince(1, testutil.Day("2024-02-15"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, rate, 1e-9)

	_, ok, err = svc.CompletionRateSince(2, testutil.Day("2024-02-15"))
	require.NoError(t, err)
	assert.False(t, ok)
}

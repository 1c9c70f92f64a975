package service

import (
	"context"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/internal/testutil"
	"habit_tracker_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHabitService_LogHabit(t *testing.T) {
	db := testutil.NewDB(t)
	cache := newFakeCache()
	svc := NewHabitService(repository.NewHabitRepository(db), cache)
	ctx := context.Background()

	t.Run("requires name and date", func(t *testing.T) {
		_, err := svc.LogHabit(ctx, 1, LogHabitInput{HabitName: "  ", Date: "2024-01-01", Status: 1})
		assert.ErrorIs(t, err, util.ErrHabitNameRequired)

		_, err = svc.LogHabit(ctx, 1, LogHabitInput{HabitName: "read", Date: " ", Status: 1})
		assert.ErrorIs(t, err, util.ErrDateRequired)
	})

	t.Run("rejects unparseable date", func(t *testing.T) {
		_, err := svc.LogHabit(ctx, 1, LogHabitInput{HabitName: "read", Date: "yesterday", Status: 1})
		assert.ErrorIs(t, err, util.ErrInvalidDate)
	})

	t.Run("normalizes status", func(t *testing.T) {
		cases := []struct {
			status interface{}
			want   int
		}{
			{float64(1), 1},
			{float64(5), 1},
			{"1", 1},
			{"0", 0},
			{"abc", 0},
			{nil, 0},
			{true, 1},
		}
		for _, tc := range cases {
			habit, err := svc.LogHabit(ctx, 2, LogHabitInput{HabitName: "run", Date: "2024-02-01", Status: tc.status})
			require.NoError(t, err)
			assert.Equal(t, tc.want, habit.Status, "status %v", tc.status)
		}
	})

	t.Run("stores and invalidates insight cache", func(t *testing.T) {
		habit, err := svc.LogHabit(ctx, 3, LogHabitInput{HabitName: " meditate ", Date: "2024-03-05", Status: 1})
		require.NoError(t, err)
		assert.NotZero(t, habit.ID)
		assert.Equal(t, "meditate", habit.HabitName)
		assert.Equal(t, testutil.Day("2024-03-05"), habit.Date)
		assert.Contains(t, cache.invalidated, uint(3))
	})
}

func TestHabitService_GetSummary(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewHabitRepository(db)
	require.NoError(t, repo.CreateBatch(habitsOf(
		testutil.Habit(1, "read", "2024-03-08", 1),
		testutil.Habit(1, "read", "2024-03-09", 1),
		testutil.Habit(1, "read", "2024-03-10", 0),
	)))

	svc := NewHabitService(repo, nil)
	svc.Now = fixedNow("2024-03-10T12:00:00Z")

	summary, err := svc.GetSummary(1)
	require.NoError(t, err)
	assert.Len(t, summary.Weekly.Labels, 7)
	assert.Equal(t, "03-10", summary.Weekly.Labels[6])
	assert.Equal(t, 2, summary.SuccessFailure.Completed)
	assert.Equal(t, 1, summary.SuccessFailure.Missed)
	assert.Equal(t, []int{1, 2, 2}, summary.Streaks.Values)
}

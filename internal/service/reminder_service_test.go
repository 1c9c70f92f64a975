package service

import (
	"context"
	"testing"

	"habit_tracker_backend/internal/model"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/internal/testutil"
	"habit_tracker_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderService_SendReminder(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewReminderService(mailer, nil, nil, 0)
	ctx := context.Background()

	require.NoError(t, svc.SendReminder(ctx, &util.Identity{Email: "a@example.com"}))
	require.NoError(t, svc.SendTestReminder(ctx, &util.Identity{Email: "a@example.com"}))
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "Habit Reminder", mailer.sent[0].Subject)
	assert.Equal(t, "This is a reminder from AI Habit Tracker to complete your habits today!", mailer.sent[0].Body)
	assert.Equal(t, "Test Habit Reminder", mailer.sent[1].Subject)
	assert.Equal(t, "This is a test reminder from AI Habit Tracker.", mailer.sent[1].Body)

	err := svc.SendReminder(ctx, &util.Identity{})
	assert.ErrorIs(t, err, util.ErrMissingRecipient)
	assert.Len(t, mailer.sent, 2)
	assert.Equal(t, defaultLookbackDays, svc.LookbackDays)
}

func TestReminderService_Daily(t *testing.T) {
	db := testutil.NewDB(t)
	userRepo := repository.NewUserRepository(db)
	habitRepo := repository.NewHabitRepository(db)

	alice := &model.User{Name: "Alice", Email: "alice@example.com"}
	bob := &model.User{Name: "", Email: "bob@example.com"}
	broken := &model.User{Name: "Broken", Email: "broken@example.com"}
	for _, u := range []*model.User{alice, bob, broken} {
		require.NoError(t, userRepo.Create(u))
	}
	require.NoError(t, habitRepo.CreateBatch(habitsOf(
		testutil.Habit(alice.ID, "read", "2024-03-01", 1),
		testutil.Habit(alice.ID, "read", "2024-03-02", 1),
		testutil.Habit(alice.ID, "read", "2024-03-03", 0),
		// 超出 30 天窗口
		testutil.Habit(alice.ID, "read", "2023-12-01", 0),
	)))

	mailer := &recordingMailer{failTo: map[string]bool{"broken@example.com": true}}
	svc := NewReminderService(mailer, userRepo, NewInsightService(habitRepo, nil), 30)
	svc.Now = fixedNow("2024-03-10T08:00:00Z")
	ctx := context.Background()

	t.Run("skips users without email", func(t *testing.T) {
		sent, err := svc.SendDailyHabitReminder(ctx, &model.User{Name: "Nobody"})
		require.NoError(t, err)
		assert.False(t, sent)
	})

	result, err := svc.SendDailyRemindersToAllUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReminderBatchResult{Sent: 2, Failed: 1}, result)

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "alice@example.com", mailer.sent[0].To)
	assert.Equal(t, "Don’t forget to complete your habit today!", mailer.sent[0].Subject)
	assert.Contains(t, mailer.sent[0].Body, "Hi Alice,")
	assert.Contains(t, mailer.sent[0].Body, "Recent completion rate: 66.7%.")

	assert.Equal(t, "bob@example.com", mailer.sent[1].To)
	assert.Contains(t, mailer.sent[1].Body, "Hi there,")
	assert.Contains(t, mailer.sent[1].Body, "Recent completion rate: N/A.")
}

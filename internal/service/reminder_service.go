package service

import (
	"context"
	"fmt"
	"habit_tracker_backend/internal/analytics"
	"habit_tracker_backend/internal/model"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/internal/util"
	"habit_tracker_backend/pkg/logger"
	"habit_tracker_backend/pkg/monitoring"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	reminderSubject     = "Habit Reminder"
	reminderBody        = "This is a reminder from AI Habit Tracker to complete your habits today!"
	testReminderSubject = "Test Habit Reminder"
	testReminderBody    = "This is a test reminder from AI Habit Tracker."
	dailySubject        = "Don’t forget to complete your habit today!"

	defaultLookbackDays = 30
)

// ReminderBatchResult 一次批量提醒的发送统计
type ReminderBatchResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type ReminderService struct {
	Mailer       Mailer
	UserRepo     *repository.UserRepository
	Insights     *InsightService
	LookbackDays int
	Now          func() time.Time
}

func NewReminderService(mailer Mailer, userRepo *repository.UserRepository, insights *InsightService, lookbackDays int) *ReminderService {
	if lookbackDays <= 0 {
		lookbackDays = defaultLookbackDays
	}
	return &ReminderService{
		Mailer:       mailer,
		UserRepo:     userRepo,
		Insights:     insights,
		LookbackDays: lookbackDays,
		Now:          time.Now,
	}
}

func (s *ReminderService) SendReminder(ctx context.Context, identity *util.Identity) error {
	return s.send(ctx, "reminder", identity.Email, reminderSubject, reminderBody)
}

func (s *ReminderService) SendTestReminder(ctx context.Context, identity *util.Identity) error {
	return s.send(ctx, "test", identity.Email, testReminderSubject, testReminderBody)
}

// SendDailyHabitReminder 没有邮箱的用户直接跳过，返回 sent=false
func (s *ReminderService) SendDailyHabitReminder(ctx context.Context, user *model.User) (bool, error) {
	if user == nil || strings.TrimSpace(user.Email) == "" {
		return false, nil
	}

	rate := "N/A"
	if s.Insights != nil {
		since := s.Now().AddDate(0, 0, -s.LookbackDays)
		r, ok, err := s.Insights.CompletionRateSince(user.ID, since)
		if err != nil {
			logger.Log.Warn("load completion rate failed", zap.Uint("userID", user.ID), zap.Error(err))
		} else if ok {
			rate = analytics.FormatPercent(r)
		}
	}

	if err := s.send(ctx, "daily", user.Email, dailySubject, dailyBody(user.Name, rate)); err != nil {
		return false, err
	}
	return true, nil
}

// SendDailyRemindersToAllUsers 单个用户失败只记录日志，不中断整批
func (s *ReminderService) SendDailyRemindersToAllUsers(ctx context.Context) (ReminderBatchResult, error) {
	var result ReminderBatchResult

	users, err := s.UserRepo.ListAll()
	if err != nil {
		return result, fmt.Errorf("list users: %w", err)
	}

	for i := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sent, err := s.SendDailyHabitReminder(ctx, &users[i])
		if err != nil {
			result.Failed++
			logger.Log.Error("failed to send daily reminder",
				zap.Uint("userID", users[i].ID), zap.String("email", users[i].Email), zap.Error(err))
			continue
		}
		if sent {
			result.Sent++
		}
	}

	logger.Log.Info("daily reminders finished", zap.Int("sent", result.Sent), zap.Int("failed", result.Failed))
	return result, nil
}

func (s *ReminderService) send(ctx context.Context, kind, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		monitoring.RemindersSent.WithLabelValues(kind, "failed").Inc()
		return util.ErrMissingRecipient
	}
	if err := s.Mailer.Send(ctx, to, subject, body); err != nil {
		monitoring.RemindersSent.WithLabelValues(kind, "failed").Inc()
		return err
	}
	monitoring.RemindersSent.WithLabelValues(kind, "sent").Inc()
	return nil
}

func dailyBody(name, completionRate string) string {
	if strings.TrimSpace(name) == "" {
		name = "there"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	b.WriteString("This is your friendly AI Habit Tracker checking in.\n\n")
	b.WriteString("Take a few minutes to complete your key habits today and log them in the dashboard so we can keep generating insights for you.\n\n")
	fmt.Fprintf(&b, "Recent completion rate: %s.\n\n", completionRate)
	b.WriteString("Stay consistent – small daily actions lead to big results. 💪\n\n")
	b.WriteString("— AI Habit Tracker")
	return b.String()
}

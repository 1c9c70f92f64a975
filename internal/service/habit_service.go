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

// LogHabitInput 记录一次习惯打卡，Status 兼容数字、字符串和布尔
type LogHabitInput struct {
	HabitName string
	Date      string
	Status    interface{}
}

type HabitService struct {
	HabitRepo *repository.HabitRepository
	Cache     InsightCache
	Now       func() time.Time
}

func NewHabitService(habitRepo *repository.HabitRepository, cache InsightCache) *HabitService {
	if cache == nil {
		cache = NoopInsightCache{}
	}
	return &HabitService{
		HabitRepo: habitRepo,
		Cache:     cache,
		Now:       time.Now,
	}
}

func (s *HabitService) LogHabit(ctx context.Context, userID uint, in LogHabitInput) (*model.Habit, error) {
	name := strings.TrimSpace(in.HabitName)
	if name == "" {
		return nil, util.ErrHabitNameRequired
	}
	if strings.TrimSpace(in.Date) == "" {
		return nil, util.ErrDateRequired
	}

	date, err := analytics.ParseDate(in.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", util.ErrInvalidDate, in.Date)
	}

	habit := &model.Habit{
		UserID:    userID,
		HabitName: name,
		Date:      date,
		Status:    int(analytics.NormalizeStatus(in.Status)),
	}
	if err := s.HabitRepo.Create(habit); err != nil {
		return nil, fmt.Errorf("save habit: %w", err)
	}

	monitoring.HabitsLogged.WithLabelValues("manual").Inc()
	invalidateInsights(ctx, s.Cache, userID)
	return habit, nil
}

// GetSummary 最近 365 条记录的图表汇总
func (s *HabitService) GetSummary(userID uint) (*analytics.Summary, error) {
	habits, err := s.HabitRepo.FindRecentByUser(userID, repository.DefaultRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}

	summary := analytics.BuildSummary(model.HabitRecords(habits), s.Now())
	return &summary, nil
}

func invalidateInsights(ctx context.Context, cache InsightCache, userID uint) {
	if err := cache.Invalidate(ctx, userID); err != nil {
		logger.Log.Warn("insight cache invalidate failed", zap.Uint("userID", userID), zap.Error(err))
	}
}

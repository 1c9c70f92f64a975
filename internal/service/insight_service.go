package service

import (
	"context"
	"fmt"
	"habit_tracker_backend/internal/analytics"
	"habit_tracker_backend/internal/model"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/pkg/logger"
	"habit_tracker_backend/pkg/monitoring"
	"habit_tracker_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type InsightService struct {
	HabitRepo *repository.HabitRepository
	Cache     InsightCache
	Now       func() time.Time
}

func NewInsightService(habitRepo *repository.HabitRepository, cache InsightCache) *InsightService {
	if cache == nil {
		cache = NoopInsightCache{}
	}
	return &InsightService{
		HabitRepo: habitRepo,
		Cache:     cache,
		Now:       time.Now,
	}
}

// GetInsights 基于用户全部历史记录生成洞察，优先读缓存
func (s *InsightService) GetInsights(ctx context.Context, userID uint) (*analytics.Insight, error) {
	ctx, span := tracing.StartSpan(ctx, "InsightService.GetInsights", attribute.Int64("user.id", int64(userID)))
	defer span.End()

	cached, err := s.Cache.Get(ctx, userID)
	if err != nil {
		// 缓存异常不影响主流程
		logger.Log.Warn("insight cache read failed", zap.Uint("userID", userID), zap.Error(err))
	} else if cached != nil {
		monitoring.InsightCacheHits.Inc()
		return cached, nil
	}

	habits, err := s.HabitRepo.FindByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}

	insight := analytics.AnalyzeHabits(model.HabitRecords(habits), s.Now())
	monitoring.InsightsGenerated.WithLabelValues(string(insight.RiskLevel)).Inc()
	span.SetAttributes(attribute.Int("habit.records", len(habits)))

	if err := s.Cache.Set(ctx, userID, &insight); err != nil {
		logger.Log.Warn("insight cache write failed", zap.Uint("userID", userID), zap.Error(err))
	}
	return &insight, nil
}

// Preview 直接分析调用方提供的记录，不读写存储
func (s *InsightService) Preview(records []analytics.Record) *analytics.Insight {
	insight := analytics.AnalyzeHabits(records, s.Now())
	monitoring.InsightsGenerated.WithLabelValues(string(insight.RiskLevel)).Inc()
	return &insight
}

// CompletionRateSince 最近一段时间的完成率，没有记录时 ok 为 false
func (s *InsightService) CompletionRateSince(userID uint, since time.Time) (rate float64, ok bool, err error) {
	habits, err := s.HabitRepo.FindByUserSince(userID, analytics.CivilDate(since))
	if err != nil {
		return 0, false, err
	}
	if len(habits) == 0 {
		return 0, false, nil
	}
	return analytics.CompletionRate(model.HabitRecords(habits)), true, nil
}

package app

import (
	"context"
	"habit_tracker_backend/internal/config"
	"habit_tracker_backend/pkg/logger"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// reminderJobTimeout 单次批量提醒的最长运行时间
const reminderJobTimeout = 30 * time.Minute

// ReminderScheduler 按 cron 表达式触发每日提醒，配置变更时重新排程
type ReminderScheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	job     func(ctx context.Context)
	entryID cron.EntryID
	spec    string
}

func NewReminderScheduler(job func(ctx context.Context)) *ReminderScheduler {
	return &ReminderScheduler{
		cron: cron.New(),
		job:  job,
	}
}

// cronSpec 非本地时区时加上 CRON_TZ 前缀
func cronSpec(cfg config.ReminderConfig) string {
	schedule := strings.TrimSpace(cfg.Schedule)
	tz := strings.TrimSpace(cfg.Timezone)
	if tz == "" || strings.EqualFold(tz, "Local") {
		return schedule
	}
	return "CRON_TZ=" + tz + " " + schedule
}

// Apply 表达式非法时返回错误并保留原有排程
func (s *ReminderScheduler) Apply(cfg config.ReminderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled {
		s.removeLocked()
		return nil
	}

	spec := cronSpec(cfg)
	if spec == s.spec && s.entryID != 0 {
		return nil
	}

	id, err := s.cron.AddFunc(spec, s.runJob)
	if err != nil {
		return err
	}
	s.removeLocked()
	s.entryID = id
	s.spec = spec

	logger.Log.Info("Reminder job scheduled", zap.String("spec", spec))
	return nil
}

func (s *ReminderScheduler) removeLocked() {
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
		logger.Log.Info("Reminder job removed", zap.String("spec", s.spec))
	}
	s.entryID = 0
	s.spec = ""
}

func (s *ReminderScheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
	defer cancel()
	s.job(ctx)
}

// Spec 当前生效的表达式，未排程时为空
func (s *ReminderScheduler) Spec() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// Next 下次触发时间，未排程时为零值
func (s *ReminderScheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entryID == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *ReminderScheduler) Start() {
	s.cron.Start()
}

func (s *ReminderScheduler) Stop() context.Context {
	return s.cron.Stop()
}

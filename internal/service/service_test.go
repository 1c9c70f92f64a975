package service

import (
	"context"
	"errors"
	"habit_tracker_backend/internal/analytics"
	"habit_tracker_backend/internal/model"
	"sync"
	"time"
)

// fakeCache 记录调用次数的内存缓存
type fakeCache struct {
	mu          sync.Mutex
	items       map[uint]*analytics.Insight
	invalidated []uint
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[uint]*analytics.Insight{}}
}

func (c *fakeCache) Get(_ context.Context, userID uint) (*analytics.Insight, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.items[userID], nil
}

func (c *fakeCache) Set(_ context.Context, userID uint, insight *analytics.Insight) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[userID] = insight
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failTo[to] {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func fixedNow(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func habitsOf(habits ...model.Habit) []model.Habit { return habits }

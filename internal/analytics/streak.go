package analytics

import (
	"encoding/json"
	"sort"
	"time"
)

// TimelineEntry 每条记录对应的连续天数快照
type TimelineEntry struct {
	Date   time.Time `json:"date"`
	Streak int       `json:"streak"`
}

func (e TimelineEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date   string `json:"date"`
		Streak int    `json:"streak"`
	}{Date: e.Date.Format(DateLayout), Streak: e.Streak})
}

func (e *TimelineEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date   string `json:"date"`
		Streak int    `json:"streak"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := ParseDate(raw.Date)
	if err != nil {
		return err
	}
	e.Date = d
	e.Streak = raw.Streak
	return nil
}

type StreakResult struct {
	CurrentStreak int             `json:"currentStreak"`
	LongestStreak int             `json:"longestStreak"`
	Timeline      []TimelineEntry `json:"timeline"`
}

// sortByDate 返回按日期升序排列的副本（稳定排序，不修改入参）
func sortByDate(records []Record) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// CalculateStreaks 计算当前连续天数、最长连续天数以及每条记录的时间线。
//
// 只有完成的记录会改变连续天数：与上一条记录（无论是否完成）恰好相差一天则 +1，
// 否则重置为 1。未完成的记录不会把连续天数清零，但会更新"上一条记录"的日期。
func CalculateStreaks(records []Record) StreakResult {
	if len(records) == 0 {
		return StreakResult{Timeline: []TimelineEntry{}}
	}

	sorted := sortByDate(records)
	current, longest := 0, 0
	var lastDate *time.Time
	timeline := make([]TimelineEntry, 0, len(sorted))

	for i := range sorted {
		r := sorted[i]
		if r.Status.Completed() {
			if lastDate != nil && daysBetween(*lastDate, r.Date) == 1 {
				current++
			} else {
				current = 1
			}
			if current > longest {
				longest = current
			}
		}
		timeline = append(timeline, TimelineEntry{Date: r.Date, Streak: current})
		lastDate = &sorted[i].Date
	}

	return StreakResult{
		CurrentStreak: current,
		LongestStreak: longest,
		Timeline:      timeline,
	}
}

package model

import (
	"habit_tracker_backend/internal/analytics"
	"time"
)

// Habit 某个习惯在某一天的完成情况
// swagger:model Habit
type Habit struct {
	BaseModel
	UserID    uint      `gorm:"not null;index:idx_habit_user_date,priority:1" json:"userId"`
	HabitName string    `gorm:"size:100;not null" json:"habitName"`
	Date      time.Time `gorm:"type:date;not null;index:idx_habit_user_date,priority:2" json:"date"`
	Status    int       `gorm:"not null;default:0" json:"status"` // 1 完成 0 未完成
}

func (Habit) TableName() string {
	return "habits"
}

// Record 转换为统计使用的记录
func (h Habit) Record() analytics.Record {
	return analytics.Record{
		Date:   analytics.CivilDate(h.Date),
		Status: analytics.Status(h.Status),
	}
}

func HabitRecords(habits []Habit) []analytics.Record {
	records := make([]analytics.Record, 0, len(habits))
	for _, h := range habits {
		records = append(records, h.Record())
	}
	return records
}

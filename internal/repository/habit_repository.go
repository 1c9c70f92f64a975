package repository

import (
	"habit_tracker_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

const DefaultRecentLimit = 365

type HabitRepository struct {
	DB *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{DB: db}
}

func (r *HabitRepository) Create(habit *model.Habit) error {
	return r.DB.Create(habit).Error
}

// CreateBatch 批量写入，空切片直接返回
func (r *HabitRepository) CreateBatch(habits []model.Habit) error {
	if len(habits) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(habits, 100).Error
}

// FindByUser 用户的全部记录，按日期升序
func (r *HabitRepository) FindByUser(userID uint) ([]model.Habit, error) {
	var habits []model.Habit
	err := r.DB.Where("user_id = ?", userID).Order("date ASC").Order("id ASC").Find(&habits).Error
	return habits, err
}

// FindRecentByUser 最近 limit 条记录，按日期降序
func (r *HabitRepository) FindRecentByUser(userID uint, limit int) ([]model.Habit, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	var habits []model.Habit
	err := r.DB.Where("user_id = ?", userID).Order("date DESC").Order("id DESC").Limit(limit).Find(&habits).Error
	return habits, err
}

// FindByUserSince since 当天及之后的记录
func (r *HabitRepository) FindByUserSince(userID uint, since time.Time) ([]model.Habit, error) {
	var habits []model.Habit
	err := r.DB.Where("user_id = ? AND date >= ?", userID, since).Order("date ASC").Find(&habits).Error
	return habits, err
}

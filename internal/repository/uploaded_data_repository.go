package repository

import (
	"habit_tracker_backend/internal/model"

	"gorm.io/gorm"
)

type UploadedDataRepository struct {
	DB *gorm.DB
}

func NewUploadedDataRepository(db *gorm.DB) *UploadedDataRepository {
	return &UploadedDataRepository{DB: db}
}

func (r *UploadedDataRepository) Create(entry *model.UploadedData) error {
	return r.DB.Create(entry).Error
}

func (r *UploadedDataRepository) CreateBatch(entries []model.UploadedData) error {
	if len(entries) == 0 {
		return nil
	}
	return r.DB.CreateInBatches(entries, 100).Error
}

func (r *UploadedDataRepository) ListByUser(userID uint, page, pageSize int) ([]model.UploadedData, int64, error) {
	var entries []model.UploadedData
	var total int64

	query := r.DB.Model(&model.UploadedData{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("date DESC").Offset(offset).Limit(pageSize).Find(&entries).Error
	return entries, total, err
}

package repository

import (
	"habit_tracker_backend/internal/model"

	"gorm.io/gorm"
)

type UploadArchiveRepository struct {
	DB *gorm.DB
}

func NewUploadArchiveRepository(db *gorm.DB) *UploadArchiveRepository {
	return &UploadArchiveRepository{DB: db}
}

func (r *UploadArchiveRepository) Create(archive *model.UploadArchive) error {
	return r.DB.Create(archive).Error
}

func (r *UploadArchiveRepository) ListByUser(userID uint, limit int) ([]model.UploadArchive, error) {
	var archives []model.UploadArchive
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&archives).Error
	return archives, err
}

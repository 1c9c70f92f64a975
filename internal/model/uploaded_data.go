package model

import "time"

// UploadedData 上传文件或手动录入的通用数值数据
// swagger:model UploadedData
type UploadedData struct {
	BaseModel
	UserID uint      `gorm:"not null;index" json:"userId"`
	Source string    `gorm:"size:50;not null;default:'manual'" json:"source"`
	Value  float64   `gorm:"not null" json:"value"`
	Date   time.Time `gorm:"type:date;not null" json:"date"`
}

func (UploadedData) TableName() string {
	return "uploaded_data"
}

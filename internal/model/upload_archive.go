package model

// UploadArchive 导入文件的存档记录
// swagger:model UploadArchive
type UploadArchive struct {
	BaseModel
	UserID          uint   `gorm:"not null;index" json:"userId"`
	OriginalName    string `gorm:"size:255" json:"originalName"`
	ObjectKey       string `gorm:"size:255" json:"objectKey"`
	URL             string `gorm:"size:500" json:"url"`
	HabitsImported  int    `json:"habitsImported"`
	EntriesImported int    `json:"entriesImported"`
	RowsSkipped     int    `json:"rowsSkipped"`
}

func (UploadArchive) TableName() string {
	return "upload_archives"
}

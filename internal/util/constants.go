package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	IdentityGuest = "guest"
	IdentityJWT   = "jwt"
)

// 上传文件相关常量
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"

	UploadFormField     = "dataFile"
	DefaultUploadSource = "csv/excel"
	DefaultManualSource = "manual"
)

var AllowedUploadExtensions = []string{ExtCSV, ExtXLSX}

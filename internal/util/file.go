package util

import (
	"bufio"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

// 上传文件允许的嗅探类型：xlsx 本质是 zip，csv 是纯文本
var uploadMimeTypes = map[string][]string{
	ExtCSV:  {"text/plain", "text/csv", "application/octet-stream"},
	ExtXLSX: {"application/zip", "application/octet-stream"},
}

// UploadExtension 返回小写扩展名，不在白名单内时返回 ErrUnsupportedFileType
func UploadExtension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedUploadExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return ext, ErrUnsupportedFileType
}

// ValidateMimeType 深度校验文件 MIME 类型，只 Peek 不消费数据
func ValidateMimeType(reader *bufio.Reader, ext string) (string, error) {
	buffer, err := reader.Peek(512)
	if err != nil && len(buffer) == 0 {
		return "", errors.New("empty file")
	}

	mimeType := http.DetectContentType(buffer)
	for _, allowed := range uploadMimeTypes[ext] {
		if strings.HasPrefix(mimeType, allowed) {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}

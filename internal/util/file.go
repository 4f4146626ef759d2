package util

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "text/", "application/zip"
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}

// DetectImportFormat 按扩展名和文件头判断导入格式，读完后回到文件开头
func DetectImportFormat(filename string, reader io.ReadSeeker) (string, error) {
	var format string
	var allowed []string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		format, allowed = FormatCSV, []string{"text/", "application/octet-stream"}
	case ".xlsx":
		format, allowed = FormatExcel, []string{"application/zip", "application/octet-stream"}
	default:
		return "", ErrImportFileType
	}

	if _, err := ValidateMimeType(reader, allowed); err != nil {
		return "", ErrImportFileType
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return format, nil
}

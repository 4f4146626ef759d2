package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"wechat_survey_backend/internal/config"
)

func TestLocalStorageUpload(t *testing.T) {
	root := t.TempDir()
	svc := NewStorageService(context.Background(), &config.StorageConfig{Type: "local", LocalPath: root})

	url, err := svc.Upload(context.Background(), "qrcodes/abc.png", strings.NewReader("png"), 3, "image/png")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "/uploads/qrcodes/abc.png" {
		t.Fatalf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(root, "qrcodes", "abc.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("file = %q, %v", data, err)
	}

	// 路径穿越被限制在根目录内
	url, err = svc.Upload(context.Background(), "../../escape.txt", strings.NewReader("x"), 1, "text/plain")
	if err != nil || url != "/uploads/escape.txt" {
		t.Fatalf("url = %q, %v", url, err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
		t.Fatalf("escaped file not under root: %v", err)
	}

	if err := svc.Delete(context.Background(), "qrcodes/abc.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "qrcodes/abc.png"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

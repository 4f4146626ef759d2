package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
	"wechat_survey_backend/internal/config"
)

func writeConfig(t *testing.T, dir, mode string) {
	t.Helper()
	body := "server:\n  port: \"8080\"\n  mode: " + mode + "\n" +
		"storage:\n  type: local\n  local_path: " + filepath.Join(dir, "uploads") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatchConfigReloads(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "debug")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	if err := WatchConfig(ctx, dir, func(cfg *config.Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	}); err != nil {
		t.Fatalf("watch: %v", err)
	}

	writeConfig(t, dir, "test")

	select {
	case cfg := <-reloaded:
		if cfg.Server.Mode != "test" {
			t.Fatalf("mode = %q, want test", cfg.Server.Mode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestIsConfigFile(t *testing.T) {
	cases := map[string]bool{
		"/etc/app/config.yaml": true,
		"config.yml":           true,
		"config.yaml.swp":      false,
		"other.yaml":           false,
	}
	for name, want := range cases {
		if got := isConfigFile(name); got != want {
			t.Errorf("isConfigFile(%q) = %v, want %v", name, got, want)
		}
	}
}

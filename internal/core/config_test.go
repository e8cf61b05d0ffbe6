package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	configPath := writeConfig(t, `port: 9090
logLevel: debug
logFormat: json
maxImages: 20
thumbnailWidth: 320
board:
  width: 1024
  height: 768
  gap: 0
previews:
  type: sqlite
  connectionString: ":memory:"
sessions:
  idleTimeout: 5m
  reapSchedule: "@every 30s"
thumbnailCommands:
  - name: PixelScaleCommand
    width: 100
`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Port != 9090 {
		t.Errorf("Expected port to be 9090, got %d", config.Port)
	}
	if config.LogLevel != "debug" || config.LogFormat != "json" {
		t.Errorf("unexpected log settings: %q %q", config.LogLevel, config.LogFormat)
	}
	if config.MaxImages != 20 || config.ThumbnailWidth != 320 {
		t.Errorf("unexpected limits: max=%d thumb=%d", config.MaxImages, config.ThumbnailWidth)
	}
	if config.Board != (Board{Width: 1024, Height: 768, Gap: 0}) {
		t.Errorf("unexpected board: %+v", config.Board)
	}
	if config.Previews.Type != "sqlite" || config.Previews.ConnectionString != ":memory:" {
		t.Errorf("unexpected previews: %+v", config.Previews)
	}
	if config.Sessions.IdleTimeout != 5*time.Minute || config.Sessions.ReapSchedule != "@every 30s" {
		t.Errorf("unexpected sessions: %+v", config.Sessions)
	}
	if len(config.ThumbnailCommands) != 1 || config.ThumbnailCommands[0].Params["width"] != 100 {
		t.Errorf("unexpected thumbnail commands: %+v", config.ThumbnailCommands)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	config, err := LoadConfig(writeConfig(t, "port: 8081\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	want := DefaultConfig()
	want.Port = 8081
	if config.Board != want.Board {
		t.Errorf("board = %+v, want %+v", config.Board, want.Board)
	}
	if config.Board != (Board{Width: 800, Height: 600, Gap: 2}) {
		t.Errorf("default board = %+v", config.Board)
	}
	if config.MaxImages != 100 {
		t.Errorf("default maxImages = %d, want 100", config.MaxImages)
	}
	if config.Previews.Type != "memory" {
		t.Errorf("default previews type = %q", config.Previews.Type)
	}
	if config.Sessions.IdleTimeout != 30*time.Minute || config.Sessions.ReapSchedule != "@every 1m" {
		t.Errorf("default sessions = %+v", config.Sessions)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("LOG_LEVEL", "warn")
	config, err := LoadConfig(writeConfig(t, "port: 8081\nlogLevel: debug\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Port != 7070 || config.LogLevel != "warn" {
		t.Fatalf("env overrides not applied: port=%d level=%q", config.Port, config.LogLevel)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"invalid yaml", "port: [", "failed to parse"},
		{"negative gap", "board:\n  gap: -1\n", "board.gap"},
		{"port out of range", "port: 70000\n", "out of range"},
		{"empty command name", "thumbnailCommands:\n  - width: 10\n", "empty name"},
		{"duplicate command", "thumbnailCommands:\n  - name: CropCommand\n  - name: CropCommand\n", "duplicate command name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("expected error, got config %+v", config)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if config != nil {
		t.Error("Expected config to be nil when file doesn't exist")
	}
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	config := DefaultConfig()
	lookup := func(key string) (string, bool) {
		if key == "PORT" {
			return "eighty", true
		}
		return "", false
	}
	if err := config.ApplyEnv(lookup); err == nil {
		t.Fatal("expected error for non-numeric PORT")
	}
}

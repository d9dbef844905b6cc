package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TSUMUGI_FEED_TOKEN", "")

	// We pass nil for cmd to skip flags
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Expected default log level %s, got %s", DefaultLogLevel, cfg.Log.Level)
	}
	if cfg.Feed.BaseURL != DefaultFeedBaseURL {
		t.Errorf("Expected default feed base url %s, got %s", DefaultFeedBaseURL, cfg.Feed.BaseURL)
	}
	if cfg.Feed.ResponseHeaderTimeout != DefaultFeedResponseHeaderTimeout {
		t.Errorf("Expected default response header timeout %s, got %s", DefaultFeedResponseHeaderTimeout, cfg.Feed.ResponseHeaderTimeout)
	}
	if cfg.Feed.MaxFrameBytes != DefaultFeedMaxFrameBytes {
		t.Errorf("Expected default max frame bytes %d, got %d", DefaultFeedMaxFrameBytes, cfg.Feed.MaxFrameBytes)
	}
	if cfg.Feed.UserAgent != DefaultFeedUserAgent {
		t.Errorf("Expected default user agent %s, got %s", DefaultFeedUserAgent, cfg.Feed.UserAgent)
	}
	if cfg.Session.SnapshotInterval != DefaultSessionSnapshotInterval {
		t.Errorf("Expected default snapshot interval %s, got %s", DefaultSessionSnapshotInterval, cfg.Session.SnapshotInterval)
	}
	if cfg.Recording.LockTimeout != DefaultRecordingLockTimeout {
		t.Errorf("Expected default recording lock timeout %s, got %s", DefaultRecordingLockTimeout, cfg.Recording.LockTimeout)
	}
	if cfg.Recording.LockMaxRetry != DefaultRecordingLockMaxRetry {
		t.Errorf("Expected default recording lock max retry %d, got %d", DefaultRecordingLockMaxRetry, cfg.Recording.LockMaxRetry)
	}
	if cfg.Render.MaxCellWidth != DefaultRenderMaxCellWidth {
		t.Errorf("Expected default render max cell width %d, got %d", DefaultRenderMaxCellWidth, cfg.Render.MaxCellWidth)
	}
	if cfg.Recording.Dir == "" {
		t.Error("Expected a non-empty default recording dir")
	}
	if cfg.Cursor.Path == "" {
		t.Error("Expected a non-empty default cursor path")
	}
}

func TestLoadWithConfigFlag(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte(`
feed:
  base_url: https://feed.internal.example
  max_frame_bytes: 1048576
log:
  level: debug
`)
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", configPath); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("failed to load config with --config: %v", err)
	}

	if cfg.Feed.BaseURL != "https://feed.internal.example" {
		t.Fatalf("expected configured base url, got %s", cfg.Feed.BaseURL)
	}
	if cfg.Feed.MaxFrameBytes != 1048576 {
		t.Fatalf("expected max frame bytes 1048576, got %d", cfg.Feed.MaxFrameBytes)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.Log.Level)
	}
}

func TestLoadWithMissingConfigFlagReturnsError(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Fatalf("failed to set config flag: %v", err)
	}

	if _, err := Load(cmd); err == nil {
		t.Fatal("expected error when --config points to missing file")
	}
}

func TestLoadPicksUpFeedTokenFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TSUMUGI_FEED_TOKEN", "tok_secret")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Feed.Token != "tok_secret" {
		t.Fatalf("expected feed token from env, got %q", cfg.Feed.Token)
	}
}

func TestLoad_ExpandsConfiguredPaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	content := []byte(`
recording:
  dir: ~/.tsumugi/recordings
cursor:
  path: ~/.tsumugi/cursors.json
`)
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cmd := &cobra.Command{}
	cmd.Flags().String("config", "", "config file path")
	if err := cmd.Flags().Set("config", configPath); err != nil {
		t.Fatalf("set config flag: %v", err)
	}

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	wantDir := filepath.Join(tmpDir, ".tsumugi", "recordings")
	if cfg.Recording.Dir != wantDir {
		t.Fatalf("recording dir = %q, want %q", cfg.Recording.Dir, wantDir)
	}
	wantPath := filepath.Join(tmpDir, ".tsumugi", "cursors.json")
	if cfg.Cursor.Path != wantPath {
		t.Fatalf("cursor path = %q, want %q", cfg.Cursor.Path, wantPath)
	}
}

func TestDurationOrDefault(t *testing.T) {
	d, err := DurationOrDefault("2s", "30s")
	if err != nil || d != 2*time.Second {
		t.Fatalf("expected 2s, got %v (err %v)", d, err)
	}

	d, err = DurationOrDefault("", "30s")
	if err != nil || d != 30*time.Second {
		t.Fatalf("expected fallback 30s, got %v (err %v)", d, err)
	}

	if _, err := DurationOrDefault("not-a-duration", "30s"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := DurationOrDefault("", ""); err == nil {
		t.Fatal("expected error for empty value and default")
	}
}

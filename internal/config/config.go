package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/tsumugi/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Feed      FeedConfig      `koanf:"feed"`
	Session   SessionConfig   `koanf:"session"`
	Recording RecordingConfig `koanf:"recording"`
	Cursor    CursorConfig    `koanf:"cursor"`
	Render    RenderConfig    `koanf:"render"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// FeedConfig describes how to reach the agent runtime's public SSE v1 endpoint.
type FeedConfig struct {
	BaseURL               string `koanf:"base_url"`
	Token                 string `koanf:"token"`
	ResponseHeaderTimeout string `koanf:"response_header_timeout"`
	MaxFrameBytes         int    `koanf:"max_frame_bytes"`
	UserAgent             string `koanf:"user_agent"`
}

type SessionConfig struct {
	SnapshotInterval string `koanf:"snapshot_interval"`
}

type RecordingConfig struct {
	Dir          string `koanf:"dir"`
	LockTimeout  string `koanf:"lock_timeout"`
	LockRetry    string `koanf:"lock_retry"`
	LockMaxRetry int    `koanf:"lock_max_retry"`
}

type CursorConfig struct {
	Path string `koanf:"path"`
}

type RenderConfig struct {
	MaxCellWidth int `koanf:"max_cell_width"`
}

const (
	DefaultLogLevel                  = "info"
	DefaultFeedBaseURL               = "http://localhost:8080"
	DefaultFeedResponseHeaderTimeout = "30s"
	DefaultFeedMaxFrameBytes         = 8 << 20
	DefaultFeedUserAgent             = "tsumugi (go)"
	DefaultSessionSnapshotInterval   = "250ms"
	DefaultRecordingLockTimeout      = "30s"
	DefaultRecordingLockRetry        = "100ms"
	DefaultRecordingLockMaxRetry     = 300
	DefaultRenderMaxCellWidth        = 48
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"log.level":                    DefaultLogLevel,
		"feed.base_url":                DefaultFeedBaseURL,
		"feed.response_header_timeout": DefaultFeedResponseHeaderTimeout,
		"feed.max_frame_bytes":         DefaultFeedMaxFrameBytes,
		"feed.user_agent":              DefaultFeedUserAgent,
		"session.snapshot_interval":    DefaultSessionSnapshotInterval,
		"recording.dir":                filepath.Join(os.Getenv("HOME"), ".tsumugi", "recordings"),
		"recording.lock_timeout":       DefaultRecordingLockTimeout,
		"recording.lock_retry":         DefaultRecordingLockRetry,
		"recording.lock_max_retry":     DefaultRecordingLockMaxRetry,
		"cursor.path":                  filepath.Join(os.Getenv("HOME"), ".tsumugi", "cursors.json"),
		"render.max_cell_width":        DefaultRenderMaxCellWidth,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".tsumugi", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("TSUMUGI_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "TSUMUGI_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if token := os.Getenv("TSUMUGI_FEED_TOKEN"); token != "" && cfg.Feed.Token == "" {
		cfg.Feed.Token = token
	}

	if err := expandPaths(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandPaths resolves "~/" shortcuts and env vars in configured paths so
// yaml like "dir: ~/.tsumugi/recordings" works as written.
func expandPaths(cfg *Config) error {
	dir, err := pathutil.Expand(cfg.Recording.Dir)
	if err != nil {
		return err
	}
	cfg.Recording.Dir = dir

	path, err := pathutil.Expand(cfg.Cursor.Path)
	if err != nil {
		return err
	}
	cfg.Cursor.Path = path
	return nil
}

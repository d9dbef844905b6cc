package record

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harunnryd/tsumugi/internal/config"
	"github.com/harunnryd/tsumugi/internal/errors"

	"github.com/gofrs/flock"
	"github.com/oklog/ulid/v2"
)

// LockConfig bounds how long NewWriter waits for a contended recording lock.
type LockConfig struct {
	Timeout  time.Duration
	Retry    time.Duration
	MaxRetry int
}

func DefaultLockConfig() *LockConfig {
	timeout, _ := config.DurationOrDefault(config.DefaultRecordingLockTimeout, config.DefaultRecordingLockTimeout)
	retry, _ := config.DurationOrDefault(config.DefaultRecordingLockRetry, config.DefaultRecordingLockRetry)

	return &LockConfig{
		Timeout:  timeout,
		Retry:    retry,
		MaxRetry: config.DefaultRecordingLockMaxRetry,
	}
}

// LockConfigFrom builds a LockConfig from the recording section, falling back
// to defaults for empty or malformed values.
func LockConfigFrom(cfg config.RecordingConfig) *LockConfig {
	lc := DefaultLockConfig()
	if d, err := config.DurationOrDefault(cfg.LockTimeout, config.DefaultRecordingLockTimeout); err == nil {
		lc.Timeout = d
	}
	if d, err := config.DurationOrDefault(cfg.LockRetry, config.DefaultRecordingLockRetry); err == nil {
		lc.Retry = d
	}
	if cfg.LockMaxRetry > 0 {
		lc.MaxRetry = cfg.LockMaxRetry
	}
	return lc
}

// Writer appends raw SSE data frames to a per-stream .jsonl recording. The
// file is flock-guarded so two tsumugi instances cannot interleave frames
// in the same recording.
type Writer struct {
	path string
	file *os.File
	lock *flock.Flock
}

// NewWriter opens (or creates) the recording for streamID under dir. An
// empty streamID gets a ULID-named recording so frames are never dropped
// while the stream is still anonymous. A nil lockCfg waits with defaults.
func NewWriter(dir, streamID string, lockCfg *LockConfig) (*Writer, error) {
	if streamID == "" {
		streamID = ulid.Make().String()
	}
	if lockCfg == nil {
		lockCfg = DefaultLockConfig()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create recording dir: %w", err)
	}

	path := filepath.Join(dir, streamID+".jsonl")
	lock := flock.New(path + ".lock")
	if err := acquireWithRetry(lock, path, lockCfg); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("open recording: %w", err)
	}

	slog.Info("Recording stream", "path", path)
	return &Writer{path: path, file: file, lock: lock}, nil
}

func acquireWithRetry(lock *flock.Flock, path string, cfg *LockConfig) error {
	deadline := time.Now().Add(cfg.Timeout)
	for i := 0; i < cfg.MaxRetry; i++ {
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("lock recording: %w", err)
		}
		if locked {
			return nil
		}
		if time.Now().After(deadline) {
			break
		}
		if i < cfg.MaxRetry-1 {
			time.Sleep(cfg.Retry)
		}
	}
	return fmt.Errorf("%w: %s (timeout after %v)", errors.ErrLocked, path, cfg.Timeout)
}

func (w *Writer) Path() string { return w.path }

// Append writes one frame per line. Frames are stored exactly as received;
// replay feeds them back through the same parse path as the live feed.
func (w *Writer) Append(frame []byte) error {
	if strings.ContainsRune(string(frame), '\n') {
		// Multi-line data payloads are legal SSE; flatten so one line stays
		// one frame on replay.
		frame = []byte(strings.ReplaceAll(string(frame), "\n", " "))
	}
	if _, err := w.file.Write(append(frame, '\n')); err != nil {
		return fmt.Errorf("append frame: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	var firstErr error
	if err := w.file.Close(); err != nil {
		firstErr = err
	}
	if err := w.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ListRecordings returns the stream ids with a recording under dir.
func ListRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".jsonl") {
			ids = append(ids, strings.TrimSuffix(entry.Name(), ".jsonl"))
		}
	}
	return ids, nil
}

// CleanupStaleLocks removes .lock files older than maxAge under dir.
func CleanupStaleLocks(dir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".lock") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) <= maxAge {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Error("Failed to remove stale recording lock", "path", path, "error", err)
			continue
		}
		slog.Info("Stale recording lock removed", "path", path)
	}
	return nil
}

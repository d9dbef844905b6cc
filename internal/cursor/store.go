package cursor

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/harunnryd/tsumugi/internal/errors"

	"github.com/natefinch/atomic"
)

// Cursors maps stream id to the last resume token observed for it.
type Cursors struct {
	Streams map[string]string `json:"streams"`
}

// Store persists resume cursors across processes so a fresh session can ask
// the backend to replay from where the last one stopped.
type Store struct {
	path  string
	state Cursors
	mu    sync.RWMutex
}

func NewStore(path string) (*Store, error) {
	s := &Store{
		path: path,
		state: Cursors{
			Streams: make(map[string]string),
		},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return err
	}

	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, &s.state)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return atomic.WriteFile(s.path, bytes.NewReader(data))
}

// Set records the cursor for streamID and persists immediately; losing a
// cursor on crash means replaying the whole stream.
func (s *Store) Set(streamID, cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cursor == "" {
		return nil
	}
	s.state.Streams[streamID] = cursor
	return s.save()
}

func (s *Store) Get(streamID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cursor, ok := s.state.Streams[streamID]
	if !ok {
		return "", errors.ErrCursorNotFound
	}
	return cursor, nil
}

func (s *Store) Reset(streamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.state.Streams, streamID)
	return s.save()
}

// List returns a copy of every persisted stream id and cursor.
func (s *Store) List() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.state.Streams))
	for id, cursor := range s.state.Streams {
		out[id] = cursor
	}
	return out
}

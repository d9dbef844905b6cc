package record

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
)

// Source replays a recorded .jsonl event log as a frame source, so a
// session controller behaves identically whether the frames came from one
// live connection, several resumed ones, or a file.
type Source struct {
	file    *os.File
	scanner *bufio.Scanner
	closed  bool
}

func OpenSource(path string, maxFrameBytes int) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)
	return &Source{file: file, scanner: scanner}, nil
}

func (s *Source) Next(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		s.Close()
		return nil, err
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		return []byte(line), nil
	}

	err := s.scanner.Err()
	s.Close()
	if err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// FrameSource matches session.FrameSource without importing it.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// Tee passes frames through while appending them to a recording. Recording
// failures are returned so the caller knows the log is incomplete.
type Tee struct {
	Src    FrameSource
	Writer *Writer
}

func (t *Tee) Next(ctx context.Context) ([]byte, error) {
	frame, err := t.Src.Next(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.Writer.Append(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

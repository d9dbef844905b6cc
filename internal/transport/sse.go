package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Stream splits an SSE response body into data frames, one frame per Next
// call. It satisfies the session controller's FrameSource: io.EOF on a clean
// end ([DONE] or server close), a wrapped read error when the connection
// drops mid-stream so callers can offer resume.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

func NewStream(body io.ReadCloser, maxFrameBytes int) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxFrameBytes)
	return &Stream{body: body, scanner: scanner}
}

// Next returns the next data payload. The event: field name is ignored; the
// public SSE v1 contract carries the kind inside the JSON payload. Comment
// lines and empty heartbeat frames are skipped.
func (s *Stream) Next(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		s.Close()
		return nil, err
	}

	var dataLines []string
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if line == "" {
			if len(dataLines) == 0 {
				continue
			}
			payload := strings.Join(dataLines, "\n")
			dataLines = dataLines[:0]
			if strings.TrimSpace(payload) == "[DONE]" {
				s.Close()
				return nil, io.EOF
			}
			return []byte(payload), nil
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		if strings.HasPrefix(line, "event:") {
			continue
		}
		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimPrefix(line, "data:")
			if strings.HasPrefix(payload, " ") {
				payload = payload[1:]
			}
			dataLines = append(dataLines, payload)
		}
	}

	if err := s.scanner.Err(); err != nil {
		s.Close()
		return nil, fmt.Errorf("feed connection lost: %w", err)
	}

	// Server closed without a [DONE]; flush a trailing unterminated frame.
	s.Close()
	if len(dataLines) > 0 {
		payload := strings.Join(dataLines, "\n")
		if strings.TrimSpace(payload) != "[DONE]" {
			return []byte(payload), nil
		}
	}
	return nil, io.EOF
}

func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

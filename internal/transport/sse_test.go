package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestStream(body string) *Stream {
	return NewStream(io.NopCloser(strings.NewReader(body)), 8<<20)
}

func collectFrames(t *testing.T, s *Stream) []string {
	t.Helper()
	var frames []string
	for {
		frame, err := s.Next(context.Background())
		if err == io.EOF {
			return frames
		}
		assert.NoError(t, err)
		if err != nil {
			return frames
		}
		frames = append(frames, string(frame))
	}
}

func TestStream_SplitsDataFrames(t *testing.T) {
	body := strings.Join([]string{
		`event: reasoning.delta`,
		`data: {"kind":"reasoning.delta","delta":"a"}`,
		``,
		`: heartbeat comment`,
		``,
		`data: {"kind":"reasoning.delta","delta":"b"}`,
		``,
		`data: [DONE]`,
		``,
	}, "\n")

	frames := collectFrames(t, newTestStream(body))
	assert.Equal(t, []string{
		`{"kind":"reasoning.delta","delta":"a"}`,
		`{"kind":"reasoning.delta","delta":"b"}`,
	}, frames)
}

func TestStream_HandlesCRLF(t *testing.T) {
	body := "data: {\"kind\":\"stream.done\"}\r\n\r\ndata: [DONE]\r\n\r\n"

	frames := collectFrames(t, newTestStream(body))
	assert.Equal(t, []string{`{"kind":"stream.done"}`}, frames)
}

func TestStream_JoinsMultiLineData(t *testing.T) {
	body := strings.Join([]string{
		`data: {"kind":"message.delta",`,
		`data: "delta":"hi"}`,
		``,
	}, "\n")

	frames := collectFrames(t, newTestStream(body))
	assert.Equal(t, []string{"{\"kind\":\"message.delta\",\n\"delta\":\"hi\"}"}, frames)
}

func TestStream_EOFAfterDoneIsSticky(t *testing.T) {
	s := newTestStream("data: [DONE]\n\n")

	_, err := s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_FlushesTrailingFrameOnServerClose(t *testing.T) {
	// Connection ends without the blank line or [DONE].
	s := newTestStream(`data: {"kind":"stream.done"}`)

	frame, err := s.Next(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, `{"kind":"stream.done"}`, string(frame))

	_, err = s.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_AllowsLargePayloadLine(t *testing.T) {
	long := strings.Repeat("a", 70_000)
	payload, err := json.Marshal(map[string]string{"kind": "message.delta", "delta": long})
	assert.NoError(t, err)

	s := newTestStream("data: " + string(payload) + "\n\ndata: [DONE]\n\n")
	frame, err := s.Next(context.Background())
	assert.NoError(t, err)
	assert.Len(t, frame, len(payload))
}

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, fmt.Errorf("connection reset")
}

func (r *failingReader) Close() error { return nil }

func TestStream_SurfacesConnectionLoss(t *testing.T) {
	s := NewStream(&failingReader{data: "data: {\"kind\":\"message.delta\",\"item_id\":\"m1\",\"delta\":\"hi\"}\n\n"}, 8<<20)

	frame, err := s.Next(context.Background())
	assert.NoError(t, err)
	assert.NotEmpty(t, frame)

	_, err = s.Next(context.Background())
	if assert.Error(t, err) {
		assert.NotErrorIs(t, err, io.EOF)
		assert.Contains(t, err.Error(), "feed connection lost")
	}
}

func TestStream_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestStream("data: {}\n\n")
	_, err := s.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClampHeaderTimeout(t *testing.T) {
	assert.Equal(t, "30s", clampHeaderTimeout(0).String())
	assert.Equal(t, "10s", clampHeaderTimeout(10_000_000_000).String())
	assert.Equal(t, "45s", clampHeaderTimeout(120_000_000_000).String())
}

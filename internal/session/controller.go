package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/harunnryd/tsumugi/internal/accumulate"
	"github.com/harunnryd/tsumugi/internal/errors"
	"github.com/harunnryd/tsumugi/internal/wire"
)

// FrameSource is the pull iterator the controller drains: one raw SSE data
// payload per call, io.EOF on clean end of stream. The transport and the
// recording replayer both implement it.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// Diagnostics counts the non-fatal anomalies observed while applying events.
type Diagnostics struct {
	MalformedFrames uint64 `json:"malformed_frames"`
	UnknownKinds    uint64 `json:"unknown_kinds"`
	DuplicateAdds   uint64 `json:"duplicate_adds"`
}

// Image is a fully reassembled chunked image payload.
type Image struct {
	ItemID   string `json:"item_id"`
	Encoding string `json:"encoding"`
	Data     string `json:"data"`
}

// Controller owns one logical conversation's accumulators. It applies events
// strictly in arrival order, one at a time; it never reorders by event_id.
// Duplicate part.added/output_item.added are no-ops, duplicate deltas are
// NOT deduplicated: the wire contract must deliver deltas at most once, even
// across reconnects (see the double-apply test).
type Controller struct {
	streamID string
	cursor   string

	reasoning *accumulate.ReasoningAccumulator
	tools     *accumulate.ToolAccumulator
	citations *accumulate.CitationAccumulator
	messages  *accumulate.MessageAccumulator
	chunks    *accumulate.ChunkAccumulator

	images    []Image
	seenParts map[int]bool
	seenItems map[string]bool

	diag    Diagnostics
	done    bool
	failure error
}

func New(streamID string) *Controller {
	return &Controller{
		streamID:  streamID,
		reasoning: accumulate.NewReasoningAccumulator(),
		tools:     accumulate.NewToolAccumulator(),
		citations: accumulate.NewCitationAccumulator(),
		messages:  accumulate.NewMessageAccumulator(),
		chunks:    accumulate.NewChunkAccumulator(),
		seenParts: make(map[int]bool),
		seenItems: make(map[string]bool),
	}
}

// Run drains src until clean end, terminal stream failure, or ctx
// cancellation. Accumulated state stays readable afterwards in every case:
// partial state is deliberately preserved so a caller can show what was
// received so far.
func (c *Controller) Run(ctx context.Context, src FrameSource) error {
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("stream read failed: %w", err)
		}
		c.ApplyFrame(frame)
		if c.failure != nil {
			return c.failure
		}
		if c.done {
			return nil
		}
	}
}

// ApplyFrame decodes one raw data payload and applies it. A frame that
// cannot be decoded is dropped and counted; it never aborts the stream.
func (c *Controller) ApplyFrame(raw []byte) {
	evt, err := wire.Parse(raw)
	if err != nil {
		c.diag.MalformedFrames++
		slog.Debug("Dropped malformed frame", "stream", c.streamID, "error", err)
		return
	}
	c.Apply(evt)
}

// Apply dispatches one decoded event to the owning accumulator. It never
// fails: unknown kinds are counted and dropped, inconsistent references
// create records on the fly.
func (c *Controller) Apply(evt wire.Event) {
	h := evt.Header()
	if c.streamID == "" && h.StreamID != "" {
		c.streamID = h.StreamID
	}
	if h.Cursor != "" {
		c.cursor = h.Cursor
	}

	switch e := evt.(type) {
	case wire.StreamStarted:
		// Cursor baseline already captured above.

	case wire.StreamDone:
		c.done = true

	case wire.StreamError:
		msg := e.Message
		if msg == "" {
			msg = e.Code
		}
		c.failure = fmt.Errorf("%w: %s", errors.ErrStreamFailed, msg)

	case wire.OutputItemAdded:
		if e.ItemType == wire.ItemTypeMCPCall || e.ItemType == wire.ItemTypeToolCall {
			if c.seenItems[h.ItemID] {
				c.diag.DuplicateAdds++
				return
			}
			c.seenItems[h.ItemID] = true
			c.tools.AddPlaceholder(h.ItemID, h.OutputIndex, e.ToolName)
		}

	case wire.MessageDelta:
		c.messages.AppendDelta(h.ItemID, h.OutputIndex, e.Delta)

	case wire.MessageDone:
		c.messages.Finish(h.ItemID, h.OutputIndex, e.Text)

	case wire.MessageCitation:
		c.citations.Append(h.ItemID, e.Citation)

	case wire.ReasoningPartAdded:
		if c.seenParts[e.SummaryIndex] {
			c.diag.DuplicateAdds++
			return
		}
		c.seenParts[e.SummaryIndex] = true
		c.reasoning.AddPart(e.SummaryIndex, e.Text)

	case wire.ReasoningDelta:
		if e.SummaryIndex == nil {
			c.reasoning.AppendSuffix(e.Delta)
			return
		}
		c.reasoning.AppendDelta(*e.SummaryIndex, e.Delta)

	case wire.ReasoningPartDone:
		c.reasoning.FinishPart(e.SummaryIndex, e.Text)

	case wire.ToolArgumentsDelta:
		c.tools.ApplyArgumentsDelta(e)

	case wire.ToolStatus:
		c.tools.ApplyStatus(e)

	case wire.ToolApproval:
		c.tools.ApplyApproval(e)

	case wire.ImageDelta:
		c.chunks.ApplyDelta(imageChunkKey(h.ItemID), e.Encoding, e.ChunkIndex, e.Data)

	case wire.ImageDone:
		chunk := c.chunks.Take(imageChunkKey(h.ItemID))
		if chunk == nil {
			return
		}
		c.images = append(c.images, Image{
			ItemID:   h.ItemID,
			Encoding: chunk.Encoding,
			Data:     chunk.Data,
		})

	case wire.Unknown:
		c.diag.UnknownKinds++
		slog.Debug("Dropped unknown event kind", "stream", c.streamID, "kind", h.Kind)
	}
}

func imageChunkKey(itemID string) accumulate.ChunkKey {
	return accumulate.ChunkKey{
		EntityKind: "image",
		EntityID:   itemID,
		Field:      "data",
	}
}

// StreamID returns the stream this controller is bound to (possibly adopted
// from the first event that carried one).
func (c *Controller) StreamID() string { return c.streamID }

// Cursor returns the most recent resume token observed on the stream.
func (c *Controller) Cursor() string { return c.cursor }

// Done reports whether stream.done was observed.
func (c *Controller) Done() bool { return c.done }

// Diagnostics returns the anomaly counters accumulated so far.
func (c *Controller) Diagnostics() Diagnostics { return c.diag }

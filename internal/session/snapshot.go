package session

import (
	"github.com/harunnryd/tsumugi/internal/accumulate"
	"github.com/harunnryd/tsumugi/internal/wire"
)

// Snapshot is an internally consistent, read-only view of everything
// accumulated so far. Building one never mutates controller state; the
// copies are independent of later Apply calls.
type Snapshot struct {
	StreamID       string
	Cursor         string
	Done           bool
	ReasoningParts []accumulate.ReasoningPart
	ReasoningText  string
	Messages       []accumulate.Message
	Tools          []accumulate.ToolCall
	Images         []Image
	Diagnostics    Diagnostics

	citations map[string][]wire.Citation
}

// Snapshot builds a consistent view by reading each accumulator once.
func (c *Controller) Snapshot() Snapshot {
	cites := make(map[string][]wire.Citation)
	for _, itemID := range c.citations.Items() {
		cites[itemID] = c.citations.ForItem(itemID)
	}

	images := make([]Image, len(c.images))
	copy(images, c.images)

	return Snapshot{
		StreamID:       c.streamID,
		Cursor:         c.cursor,
		Done:           c.done,
		ReasoningParts: c.reasoning.Parts(),
		ReasoningText:  c.reasoning.SummaryText(),
		Messages:       c.messages.Messages(),
		Tools:          c.tools.ToolsSorted(),
		Images:         images,
		Diagnostics:    c.diag,
		citations:      cites,
	}
}

// Citations returns the citations for itemID in arrival order, or nil when
// the item was never cited.
func (s Snapshot) Citations(itemID string) []wire.Citation {
	cites, ok := s.citations[itemID]
	if !ok {
		return nil
	}
	return cites
}

package accumulate

import (
	"encoding/json"
	"sort"

	"github.com/harunnryd/tsumugi/internal/wire"
)

// StatusOutputAvailable marks a tool call whose terminal output is present.
const StatusOutputAvailable = "output-available"

// ToolCall is the merged view of one tool invocation: announced by
// output_item.added, streamed by argument deltas, finished by status or
// approval events.
type ToolCall struct {
	ID            string          `json:"id"`
	Status        string          `json:"status,omitempty"`
	Type          string          `json:"type,omitempty"`
	Name          string          `json:"name,omitempty"`
	ArgumentsText string          `json:"arguments_text,omitempty"`
	Output        json.RawMessage `json:"output,omitempty"`
}

// ApprovalOutput is the projected output of a tool.approval event.
type ApprovalOutput struct {
	Approved          bool   `json:"approved"`
	ApprovalRequestID string `json:"approval_request_id"`
	Reason            string `json:"reason,omitempty"`
}

type toolRecord struct {
	call        ToolCall
	outputIndex int
	visible     bool
}

// ToolAccumulator merges the three event kinds that announce a tool call
// without sharing a key at announcement time. A provisional output-item id
// is aliased to the tool-call id the first time an event carries both; the
// alias table is private and every lookup resolves through it.
type ToolAccumulator struct {
	records map[string]*toolRecord
	alias   map[string]string
}

func NewToolAccumulator() *ToolAccumulator {
	return &ToolAccumulator{
		records: make(map[string]*toolRecord),
		alias:   make(map[string]string),
	}
}

func (t *ToolAccumulator) resolve(key string) string {
	if canonical, ok := t.alias[key]; ok {
		return canonical
	}
	return key
}

// AddPlaceholder registers a provisional record keyed by item_id. The
// record stays invisible until content arrives, so a bare announcement
// never produces an empty row. Duplicate announcements are no-ops.
func (t *ToolAccumulator) AddPlaceholder(itemID string, outputIndex int, name string) {
	if itemID == "" {
		return
	}
	if _, ok := t.records[t.resolve(itemID)]; ok {
		return
	}
	t.records[itemID] = &toolRecord{
		call:        ToolCall{Name: name},
		outputIndex: outputIndex,
	}
}

// lookup finds or creates the record for (itemID, callID), establishing the
// item_id -> tool_call_id alias the first time both keys are observed.
func (t *ToolAccumulator) lookup(itemID, callID string, outputIndex int) *toolRecord {
	if callID != "" {
		if rec, ok := t.records[callID]; ok {
			if itemID != "" {
				t.alias[itemID] = callID
			}
			return rec
		}
	}
	if itemID != "" {
		if rec, ok := t.records[t.resolve(itemID)]; ok {
			if callID != "" {
				delete(t.records, itemID)
				t.records[callID] = rec
				t.alias[itemID] = callID
				rec.call.ID = callID
			}
			return rec
		}
	}

	// Referential inconsistency: an update for a call never announced.
	// Partial information beats none mid-stream, so create on the fly.
	rec := &toolRecord{outputIndex: outputIndex}
	switch {
	case callID != "":
		rec.call.ID = callID
		t.records[callID] = rec
		if itemID != "" {
			t.alias[itemID] = callID
		}
	case itemID != "":
		t.records[itemID] = rec
	default:
		return nil
	}
	return rec
}

// ApplyArgumentsDelta concatenates streamed argument text and records the
// tool name/type on first sight (names must not change mid-call).
func (t *ToolAccumulator) ApplyArgumentsDelta(evt wire.ToolArgumentsDelta) {
	rec := t.lookup(evt.Header().ItemID, evt.ToolCallID, evt.Header().OutputIndex)
	if rec == nil {
		return
	}
	rec.call.ArgumentsText += evt.Delta
	if rec.call.Type == "" {
		rec.call.Type = evt.ToolType
	}
	if rec.call.Name == "" {
		rec.call.Name = evt.ToolName
	}
	rec.visible = true
}

// ApplyStatus replaces status and output wholesale; each status update is
// authoritative, nothing is merged across them.
func (t *ToolAccumulator) ApplyStatus(evt wire.ToolStatus) {
	rec := t.lookup(evt.Header().ItemID, evt.Tool.ToolCallID, evt.Header().OutputIndex)
	if rec == nil {
		return
	}
	rec.call.Status = evt.Tool.Status
	rec.call.Output = evt.Tool.Output
	if evt.Tool.Type != "" {
		rec.call.Type = evt.Tool.Type
	}
	if evt.Tool.Name != "" {
		rec.call.Name = evt.Tool.Name
	}
	rec.visible = true
}

// ApplyApproval projects an approval decision as a terminal tool output.
// No tool.status needs to have preceded it; approval alone makes the call
// visible.
func (t *ToolAccumulator) ApplyApproval(evt wire.ToolApproval) {
	rec := t.lookup(evt.Header().ItemID, evt.ToolCallID, evt.Header().OutputIndex)
	if rec == nil {
		return
	}
	output, err := json.Marshal(ApprovalOutput{
		Approved:          evt.Approved,
		ApprovalRequestID: evt.ApprovalRequestID,
		Reason:            evt.Reason,
	})
	if err != nil {
		return
	}
	rec.call.Status = StatusOutputAvailable
	rec.call.Output = output
	rec.visible = true
}

// ToolsSorted returns every visible tool call ordered by first-observed
// output_index, ties broken by tool-call id.
func (t *ToolAccumulator) ToolsSorted() []ToolCall {
	type entry struct {
		call  ToolCall
		index int
	}
	entries := make([]entry, 0, len(t.records))
	for _, rec := range t.records {
		if !rec.visible {
			continue
		}
		entries = append(entries, entry{call: rec.call, index: rec.outputIndex})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].index != entries[j].index {
			return entries[i].index < entries[j].index
		}
		return entries[i].call.ID < entries[j].call.ID
	})

	out := make([]ToolCall, len(entries))
	for i, e := range entries {
		out[i] = e.call
	}
	return out
}

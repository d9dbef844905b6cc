package wire

import "encoding/json"

// Event kinds emitted on the public SSE v1 feed.
const (
	KindStreamStarted      = "stream.started"
	KindStreamDone         = "stream.done"
	KindStreamError        = "error"
	KindOutputItemAdded    = "output_item.added"
	KindMessageDelta       = "message.delta"
	KindMessageDone        = "message.done"
	KindMessageCitation    = "message.citation"
	KindReasoningPartAdded = "reasoning.part.added"
	KindReasoningDelta     = "reasoning.delta"
	KindReasoningPartDone  = "reasoning.part.done"
	KindToolArgumentsDelta = "tool.arguments.delta"
	KindToolStatus         = "tool.status"
	KindToolApproval       = "tool.approval"
	KindImageDelta         = "image.delta"
	KindImageDone          = "image.done"
)

// Item types carried by output_item.added.
const (
	ItemTypeMessage   = "message"
	ItemTypeReasoning = "reasoning"
	ItemTypeImage     = "image_generation_call"
	ItemTypeMCPCall   = "mcp_call"
	ItemTypeToolCall  = "function_call"
)

// Header carries the fields common to every event kind.
type Header struct {
	Kind            string `json:"kind"`
	EventID         int64  `json:"event_id"`
	StreamID        string `json:"stream_id"`
	ServerTimestamp int64  `json:"server_timestamp"`
	OutputIndex     int    `json:"output_index"`
	ItemID          string `json:"item_id"`
	Cursor          string `json:"cursor,omitempty"`
}

// Event is the closed union of everything the feed can emit. Dispatch is an
// exhaustive type switch; Unknown is the forward-compatibility arm.
type Event interface {
	Header() Header
	isEvent()
}

type header struct {
	H Header
}

func (h header) Header() Header { return h.H }
func (h header) isEvent()       {}

// StreamStarted opens a logical stream and carries the resume baseline.
type StreamStarted struct {
	header
}

// StreamDone marks the logical stream as complete.
type StreamDone struct {
	header
}

// StreamError is a terminal backend-reported failure for the stream.
type StreamError struct {
	header
	Code    string
	Message string
}

// OutputItemAdded announces a logical output item before its content streams.
// For tool-like item types the tool_call_id is not yet known.
type OutputItemAdded struct {
	header
	ItemType string
	ToolName string
}

// MessageDelta appends text to an assistant message item.
type MessageDelta struct {
	header
	Delta string
}

// MessageDone carries the authoritative final text for a message item.
type MessageDone struct {
	header
	Text string
}

// Citation annotates a span of a message item with a source reference.
type Citation struct {
	Title      string `json:"title,omitempty"`
	URL        string `json:"url,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// MessageCitation attaches a citation to the message item it annotates.
type MessageCitation struct {
	header
	Citation Citation
}

// ReasoningPartAdded opens a reasoning summary part at summary_index.
type ReasoningPartAdded struct {
	header
	SummaryIndex int
	Text         string
}

// ReasoningDelta appends text to a reasoning summary part. SummaryIndex is
// nil for the rare trailing delta the backend emits without a part binding.
type ReasoningDelta struct {
	header
	SummaryIndex *int
	Delta        string
}

// ReasoningPartDone finalizes a part; Text replaces all accumulated deltas.
type ReasoningPartDone struct {
	header
	SummaryIndex int
	Text         string
}

// ToolArgumentsDelta streams argument text for a tool call. It is the first
// event that carries both the item_id and the tool_call_id.
type ToolArgumentsDelta struct {
	header
	ToolCallID string
	ToolType   string
	ToolName   string
	Delta      string
}

// ToolPayload is the full tool object carried by tool.status events.
type ToolPayload struct {
	ToolCallID string          `json:"tool_call_id"`
	Status     string          `json:"status"`
	Type       string          `json:"type,omitempty"`
	Name       string          `json:"name,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
}

// ToolStatus replaces status and output on a tool call wholesale.
type ToolStatus struct {
	header
	Tool ToolPayload
}

// ToolApproval records a human-in-the-loop approval decision for a gated
// tool call. It projects to a terminal tool output.
type ToolApproval struct {
	header
	ToolCallID        string
	Approved          bool
	ApprovalRequestID string
	Reason            string
}

// ImageDelta carries one indexed fragment of a chunked binary field.
type ImageDelta struct {
	header
	Encoding   string
	ChunkIndex int
	Data       string
}

// ImageDone signals that all fragments for an image item have been sent.
type ImageDone struct {
	header
}

// Unknown preserves frames whose kind this client does not understand.
// They must never abort an otherwise-healthy stream.
type Unknown struct {
	header
	Raw json.RawMessage
}

package wire

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harunnryd/tsumugi/internal/errors"
)

// envelope is the superset of every kind-specific payload. One decode, then
// an exhaustive switch picks the fields the kind actually uses.
type envelope struct {
	Header
	Delta        string          `json:"delta"`
	Text         string          `json:"text"`
	SummaryIndex *int            `json:"summary_index"`
	Item         *envelopeItem   `json:"item"`
	Citation     *Citation       `json:"citation"`
	ToolCallID   string          `json:"tool_call_id"`
	ToolType     string          `json:"tool_type"`
	ToolName     string          `json:"tool_name"`
	Tool         *ToolPayload    `json:"tool"`
	Approval     *approvalFields `json:"approval"`
	Encoding     string          `json:"encoding"`
	ChunkIndex   *int            `json:"chunk_index"`
	Data         string          `json:"data"`
	Error        *errorFields    `json:"error"`
}

type envelopeItem struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

type approvalFields struct {
	Approved          bool   `json:"approved"`
	ApprovalRequestID string `json:"approval_request_id"`
	Reason            string `json:"reason"`
}

type errorFields struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Parse decodes one data frame into a typed Event. Unknown kinds decode to
// wire.Unknown; a frame that cannot serve its own kind (bad JSON, missing
// required fields) returns errors.ErrMalformedFrame so the caller can drop
// it and keep the stream alive.
func Parse(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	if strings.TrimSpace(env.Kind) == "" {
		return nil, fmt.Errorf("%w: missing kind", errors.ErrMalformedFrame)
	}

	h := header{H: env.Header}

	switch env.Kind {
	case KindStreamStarted:
		return StreamStarted{header: h}, nil

	case KindStreamDone:
		return StreamDone{header: h}, nil

	case KindStreamError:
		evt := StreamError{header: h}
		if env.Error != nil {
			evt.Code = env.Error.Code
			evt.Message = env.Error.Message
		}
		return evt, nil

	case KindOutputItemAdded:
		if env.Item == nil {
			return nil, fmt.Errorf("%w: output_item.added without item", errors.ErrMalformedFrame)
		}
		if h.H.ItemID == "" {
			h.H.ItemID = env.Item.ID
		}
		if h.H.ItemID == "" {
			return nil, fmt.Errorf("%w: output_item.added without item id", errors.ErrMalformedFrame)
		}
		return OutputItemAdded{header: h, ItemType: env.Item.Type, ToolName: env.Item.Name}, nil

	case KindMessageDelta:
		if err := requireItemID(env, "message.delta"); err != nil {
			return nil, err
		}
		return MessageDelta{header: h, Delta: env.Delta}, nil

	case KindMessageDone:
		if err := requireItemID(env, "message.done"); err != nil {
			return nil, err
		}
		return MessageDone{header: h, Text: env.Text}, nil

	case KindMessageCitation:
		if err := requireItemID(env, "message.citation"); err != nil {
			return nil, err
		}
		if env.Citation == nil {
			return nil, fmt.Errorf("%w: message.citation without citation", errors.ErrMalformedFrame)
		}
		return MessageCitation{header: h, Citation: *env.Citation}, nil

	case KindReasoningPartAdded:
		if env.SummaryIndex == nil {
			return nil, fmt.Errorf("%w: reasoning.part.added without summary_index", errors.ErrMalformedFrame)
		}
		return ReasoningPartAdded{header: h, SummaryIndex: *env.SummaryIndex, Text: env.Text}, nil

	case KindReasoningDelta:
		// summary_index may legitimately be absent: a trailing free-floating
		// delta attaches to the highest-known part.
		return ReasoningDelta{header: h, SummaryIndex: env.SummaryIndex, Delta: env.Delta}, nil

	case KindReasoningPartDone:
		if env.SummaryIndex == nil {
			return nil, fmt.Errorf("%w: reasoning.part.done without summary_index", errors.ErrMalformedFrame)
		}
		return ReasoningPartDone{header: h, SummaryIndex: *env.SummaryIndex, Text: env.Text}, nil

	case KindToolArgumentsDelta:
		if env.ToolCallID == "" {
			return nil, fmt.Errorf("%w: tool.arguments.delta without tool_call_id", errors.ErrMalformedFrame)
		}
		return ToolArgumentsDelta{
			header:     h,
			ToolCallID: env.ToolCallID,
			ToolType:   env.ToolType,
			ToolName:   env.ToolName,
			Delta:      env.Delta,
		}, nil

	case KindToolStatus:
		if env.Tool == nil || env.Tool.ToolCallID == "" {
			return nil, fmt.Errorf("%w: tool.status without tool payload", errors.ErrMalformedFrame)
		}
		return ToolStatus{header: h, Tool: *env.Tool}, nil

	case KindToolApproval:
		if env.ToolCallID == "" && env.ItemID == "" {
			return nil, fmt.Errorf("%w: tool.approval without tool_call_id or item_id", errors.ErrMalformedFrame)
		}
		evt := ToolApproval{header: h, ToolCallID: env.ToolCallID}
		if env.Approval != nil {
			evt.Approved = env.Approval.Approved
			evt.ApprovalRequestID = env.Approval.ApprovalRequestID
			evt.Reason = env.Approval.Reason
		}
		return evt, nil

	case KindImageDelta:
		if err := requireItemID(env, "image.delta"); err != nil {
			return nil, err
		}
		if env.ChunkIndex == nil {
			return nil, fmt.Errorf("%w: image.delta without chunk_index", errors.ErrMalformedFrame)
		}
		return ImageDelta{header: h, Encoding: env.Encoding, ChunkIndex: *env.ChunkIndex, Data: env.Data}, nil

	case KindImageDone:
		if err := requireItemID(env, "image.done"); err != nil {
			return nil, err
		}
		return ImageDone{header: h}, nil

	default:
		return Unknown{header: h, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

func requireItemID(env envelope, kind string) error {
	if env.ItemID == "" {
		return fmt.Errorf("%w: %s without item_id", errors.ErrMalformedFrame, kind)
	}
	return nil
}

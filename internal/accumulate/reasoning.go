package accumulate

import (
	"sort"
	"strings"
)

// Reasoning part statuses.
const (
	PartStreaming = "streaming"
	PartDone      = "done"
)

// ReasoningPart is one summary paragraph of the model's intermediate
// reasoning, identified by its summary index within the response.
type ReasoningPart struct {
	SummaryIndex int    `json:"summary_index"`
	Status       string `json:"status"`
	Text         string `json:"text"`
}

// ReasoningAccumulator builds ordered reasoning parts from added/delta/done
// events. Deltas may outrun their part.added due to pipelining, and added
// may be re-delivered after a reconnect; both are tolerated.
type ReasoningAccumulator struct {
	parts map[int]*ReasoningPart
}

func NewReasoningAccumulator() *ReasoningAccumulator {
	return &ReasoningAccumulator{parts: make(map[int]*ReasoningPart)}
}

// AddPart opens a part at summaryIndex. Duplicate adds are no-ops so that
// at-least-once re-delivery cannot reset streamed text.
func (r *ReasoningAccumulator) AddPart(summaryIndex int, initialText string) {
	if _, ok := r.parts[summaryIndex]; ok {
		return
	}
	r.parts[summaryIndex] = &ReasoningPart{
		SummaryIndex: summaryIndex,
		Status:       PartStreaming,
		Text:         initialText,
	}
}

// AppendDelta concatenates delta text onto the part at summaryIndex,
// creating it when the delta outruns its part.added.
func (r *ReasoningAccumulator) AppendDelta(summaryIndex int, delta string) {
	part, ok := r.parts[summaryIndex]
	if !ok {
		part = &ReasoningPart{SummaryIndex: summaryIndex, Status: PartStreaming}
		r.parts[summaryIndex] = part
	}
	part.Text += delta
}

// FinishPart finalizes the part at summaryIndex. The done payload is
// authoritative: it replaces accumulated text rather than appending, because
// some producers resend the full final text at completion.
func (r *ReasoningAccumulator) FinishPart(summaryIndex int, text string) {
	r.parts[summaryIndex] = &ReasoningPart{
		SummaryIndex: summaryIndex,
		Status:       PartDone,
		Text:         text,
	}
}

// AppendSuffix attaches a free-floating trailing delta to the highest-known
// part, creating part 0 when nothing streamed yet.
func (r *ReasoningAccumulator) AppendSuffix(delta string) {
	if len(r.parts) == 0 {
		r.AppendDelta(0, delta)
		return
	}
	highest := 0
	first := true
	for idx := range r.parts {
		if first || idx > highest {
			highest = idx
			first = false
		}
	}
	r.parts[highest].Text += delta
}

// Parts returns all parts sorted ascending by summary index.
func (r *ReasoningAccumulator) Parts() []ReasoningPart {
	out := make([]ReasoningPart, 0, len(r.parts))
	for _, part := range r.parts {
		out = append(out, *part)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SummaryIndex < out[j].SummaryIndex
	})
	return out
}

// SummaryText concatenates part texts in summary-index order.
func (r *ReasoningAccumulator) SummaryText() string {
	var sb strings.Builder
	for _, part := range r.Parts() {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

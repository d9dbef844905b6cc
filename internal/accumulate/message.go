package accumulate

import "sort"

// Message is the assembled text of one assistant message item.
type Message struct {
	ItemID string `json:"item_id"`
	Text   string `json:"text"`
	Done   bool   `json:"done"`
}

type messageRecord struct {
	msg         Message
	outputIndex int
	order       int
}

// MessageAccumulator assembles assistant message text per item. Same replace
// semantics as reasoning parts: the done payload is authoritative.
type MessageAccumulator struct {
	byItemID map[string]*messageRecord
	seq      int
}

func NewMessageAccumulator() *MessageAccumulator {
	return &MessageAccumulator{byItemID: make(map[string]*messageRecord)}
}

func (m *MessageAccumulator) record(itemID string, outputIndex int) *messageRecord {
	rec, ok := m.byItemID[itemID]
	if !ok {
		rec = &messageRecord{
			msg:         Message{ItemID: itemID},
			outputIndex: outputIndex,
			order:       m.seq,
		}
		m.seq++
		m.byItemID[itemID] = rec
	}
	return rec
}

func (m *MessageAccumulator) AppendDelta(itemID string, outputIndex int, delta string) {
	rec := m.record(itemID, outputIndex)
	rec.msg.Text += delta
}

func (m *MessageAccumulator) Finish(itemID string, outputIndex int, text string) {
	rec := m.record(itemID, outputIndex)
	rec.msg.Text = text
	rec.msg.Done = true
}

// Messages returns all message items ordered by output_index, falling back
// to first-observed order for items that share one.
func (m *MessageAccumulator) Messages() []Message {
	recs := make([]*messageRecord, 0, len(m.byItemID))
	for _, rec := range m.byItemID {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].outputIndex != recs[j].outputIndex {
			return recs[i].outputIndex < recs[j].outputIndex
		}
		return recs[i].order < recs[j].order
	})
	out := make([]Message, len(recs))
	for i, rec := range recs {
		out[i] = rec.msg
	}
	return out
}

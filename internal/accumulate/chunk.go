package accumulate

import (
	"sort"
	"strings"
)

// ChunkKey identifies one chunked value on the stream. Fragments for the
// same key may arrive in any order and must be reassembled by chunk index.
type ChunkKey struct {
	EntityKind string
	EntityID   string
	Field      string
	Group      string
}

// Chunk is a fully reassembled value plus the encoding of its fragments.
type Chunk struct {
	Encoding string
	Data     string
}

type chunkState struct {
	encoding string
	parts    map[int]string
}

// ChunkAccumulator buffers out-of-order fragments per key until a terminal
// event triggers the single-use take.
type ChunkAccumulator struct {
	entries map[ChunkKey]*chunkState
}

func NewChunkAccumulator() *ChunkAccumulator {
	return &ChunkAccumulator{entries: make(map[ChunkKey]*chunkState)}
}

// ApplyDelta upserts one fragment. The first observed fragment fixes the
// encoding for the life of the key; later deltas that disagree are ignored.
// Re-delivery of an already-seen index overwrites it (last-write-wins) so a
// replayed fragment after reconnect cannot corrupt the buffer.
func (c *ChunkAccumulator) ApplyDelta(key ChunkKey, encoding string, chunkIndex int, data string) {
	entry, ok := c.entries[key]
	if !ok {
		entry = &chunkState{parts: make(map[int]string)}
		c.entries[key] = entry
	}
	if entry.encoding == "" {
		entry.encoding = encoding
	}
	entry.parts[chunkIndex] = data
}

// Take reassembles the value for key by ascending chunk index, deletes the
// entry, and returns the result. A second take for the same key returns nil,
// as does a take for a key that never saw a fragment. Completeness is the
// caller's concern: the terminal event decides when to take.
func (c *ChunkAccumulator) Take(key ChunkKey) *Chunk {
	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	delete(c.entries, key)

	indexes := make([]int, 0, len(entry.parts))
	for idx := range entry.parts {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var sb strings.Builder
	for _, idx := range indexes {
		sb.WriteString(entry.parts[idx])
	}

	return &Chunk{Encoding: entry.encoding, Data: sb.String()}
}

// Pending reports how many keys still hold unconsumed fragments.
func (c *ChunkAccumulator) Pending() int {
	return len(c.entries)
}

package accumulate

import (
	"github.com/harunnryd/tsumugi/internal/wire"
)

// CitationAccumulator collects citations per message item in arrival order.
// Appends are deliberately dumb: no dedup, no merge. Callers filter repeats
// case-by-case when rendering.
type CitationAccumulator struct {
	byItemID map[string][]wire.Citation
}

func NewCitationAccumulator() *CitationAccumulator {
	return &CitationAccumulator{byItemID: make(map[string][]wire.Citation)}
}

func (c *CitationAccumulator) Append(itemID string, citation wire.Citation) {
	c.byItemID[itemID] = append(c.byItemID[itemID], citation)
}

// ForItem returns the citations attached to itemID in arrival order, or nil
// when the item was never cited. Nil and empty are distinct on purpose.
func (c *CitationAccumulator) ForItem(itemID string) []wire.Citation {
	cites, ok := c.byItemID[itemID]
	if !ok {
		return nil
	}
	out := make([]wire.Citation, len(cites))
	copy(out, cites)
	return out
}

// Items returns every item id that has at least one citation.
func (c *CitationAccumulator) Items() []string {
	out := make([]string, 0, len(c.byItemID))
	for id := range c.byItemID {
		out = append(out, id)
	}
	return out
}

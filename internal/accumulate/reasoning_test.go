package accumulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasoningAccumulator_AddedThenDeltas(t *testing.T) {
	acc := NewReasoningAccumulator()
	acc.AddPart(0, "")
	acc.AppendDelta(0, "First ")
	acc.AppendDelta(0, "thought.")

	parts := acc.Parts()
	if assert.Len(t, parts, 1) {
		assert.Equal(t, PartStreaming, parts[0].Status)
		assert.Equal(t, "First thought.", parts[0].Text)
	}
}

func TestReasoningAccumulator_DeltaOutrunsAdded(t *testing.T) {
	acc := NewReasoningAccumulator()
	// Pipelining: the delta for index 1 lands before its part.added.
	acc.AppendDelta(1, "early")
	acc.AddPart(1, "reset?")

	parts := acc.Parts()
	if assert.Len(t, parts, 1) {
		assert.Equal(t, "early", parts[0].Text)
	}
}

func TestReasoningAccumulator_DuplicateAddedIsNoOp(t *testing.T) {
	acc := NewReasoningAccumulator()
	acc.AddPart(0, "")
	acc.AppendDelta(0, "streamed")
	acc.AddPart(0, "fresh")

	assert.Equal(t, "streamed", acc.SummaryText())
}

func TestReasoningAccumulator_DoneReplacesAccumulatedText(t *testing.T) {
	acc := NewReasoningAccumulator()
	acc.AddPart(0, "")
	acc.AppendDelta(0, "partial tex")
	acc.FinishPart(0, "partial text, final.")

	parts := acc.Parts()
	if assert.Len(t, parts, 1) {
		assert.Equal(t, PartDone, parts[0].Status)
		assert.Equal(t, "partial text, final.", parts[0].Text)
	}
}

func TestReasoningAccumulator_DeltaAfterDoneStillAppends(t *testing.T) {
	acc := NewReasoningAccumulator()
	acc.FinishPart(0, "done.")
	acc.AppendDelta(0, " straggler")

	assert.Equal(t, "done. straggler", acc.SummaryText())
}

func TestReasoningAccumulator_PartsSortedBySummaryIndex(t *testing.T) {
	acc := NewReasoningAccumulator()
	acc.FinishPart(2, "c")
	acc.FinishPart(0, "a")
	acc.FinishPart(1, "b")

	parts := acc.Parts()
	if assert.Len(t, parts, 3) {
		assert.Equal(t, 0, parts[0].SummaryIndex)
		assert.Equal(t, 1, parts[1].SummaryIndex)
		assert.Equal(t, 2, parts[2].SummaryIndex)
	}
	assert.Equal(t, "abc", acc.SummaryText())
}

func TestReasoningAccumulator_AppendSuffixToHighestPart(t *testing.T) {
	acc := NewReasoningAccumulator()
	acc.FinishPart(0, "a")
	acc.FinishPart(3, "d")
	acc.AppendSuffix("+tail")

	parts := acc.Parts()
	if assert.Len(t, parts, 2) {
		assert.Equal(t, "a", parts[0].Text)
		assert.Equal(t, "d+tail", parts[1].Text)
	}
}

func TestReasoningAccumulator_AppendSuffixCreatesPartZero(t *testing.T) {
	acc := NewReasoningAccumulator()
	acc.AppendSuffix("orphan")

	parts := acc.Parts()
	if assert.Len(t, parts, 1) {
		assert.Equal(t, 0, parts[0].SummaryIndex)
		assert.Equal(t, "orphan", parts[0].Text)
	}
}

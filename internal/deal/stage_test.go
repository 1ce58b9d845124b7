package deal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageOrderIsMonotonic(t *testing.T) {
	// Every stage except the last must have exactly its list successor.
	for i := 0; i < len(pipelineOrder)-1; i++ {
		next, ok := pipelineOrder[i].Next()
		require.True(t, ok, "stage %s has no successor", pipelineOrder[i])
		assert.Equal(t, pipelineOrder[i+1], next)
	}
	_, ok := StageCompleted.Next()
	assert.False(t, ok)
	_, ok = StageDeclined.Next()
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StageQuoteRequestReceived, StageQuoteSent))
	assert.True(t, CanTransition(StageInvoiceReceived, StageCompleted))

	// No skipping.
	assert.False(t, CanTransition(StageQuoteRequestReceived, StageQuoteApproved))
	assert.False(t, CanTransition(StageQuoteSent, StageCompleted))

	// No moving backwards.
	assert.False(t, CanTransition(StageQuoteApproved, StageQuoteSent))

	// No self-transition.
	assert.False(t, CanTransition(StageQuoteSent, StageQuoteSent))
}

func TestDeclinedEscapeFromAnyNonTerminalStage(t *testing.T) {
	for _, s := range pipelineOrder {
		if s.Terminal() {
			continue
		}
		assert.True(t, CanTransition(s, StageDeclined), "from %s", s)
	}
}

func TestTerminalStagesAreImmovable(t *testing.T) {
	for _, target := range Stages() {
		assert.False(t, CanTransition(StageCompleted, target), "completed -> %s", target)
		assert.False(t, CanTransition(StageDeclined, target), "declined -> %s", target)
	}
}

func TestCommissionEligible(t *testing.T) {
	assert.False(t, StageQuoteRequestReceived.CommissionEligible())
	assert.False(t, StageSignedAwaitingDocs.CommissionEligible())
	assert.True(t, StageApproved.CommissionEligible())
	assert.True(t, StageInvoiceReceived.CommissionEligible())
	assert.True(t, StageCompleted.CommissionEligible())
	assert.False(t, StageDeclined.CommissionEligible())
}

func TestStageValid(t *testing.T) {
	for _, s := range Stages() {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, Stage("on_hold").Valid())
	assert.False(t, Stage("").Valid())
}

// internal/breakdown/model.go
package breakdown

import (
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

// CommissionLine is one recipient's share of a payable total.
type CommissionLine struct {
	Level       int         `json:"level"`
	RecipientID uint        `json:"recipientId"`
	Role        string      `json:"role"`
	Percentage  int64       `json:"percentage"`
	AutoAmount  money.Money `json:"autoAmount"`
	FinalAmount money.Money `json:"finalAmount"`
	Overridden  bool        `json:"overridden"`
}

// Breakdown is the full set of lines for one deal's commission. It is
// an in-memory value until Finalize persists it; overrides mutate only
// the copy in hand.
type Breakdown struct {
	DealID       uint             `json:"dealId"`
	TotalPayable money.Money      `json:"totalPayable"`
	Lines        []CommissionLine `json:"lines"`

	// TotalDistributed is advisory: overrides may push it away from
	// TotalPayable on purpose (bonuses and discretion, not forced
	// reallocation).
	TotalDistributed money.Money `json:"totalDistributed"`

	// RoundingRemainder makes the auto split auditable:
	// sum(autoAmounts) + RoundingRemainder == TotalPayable exactly. It
	// carries rounding drift plus any unallocated share from missing
	// upline levels.
	RoundingRemainder money.Money `json:"roundingRemainder"`
}

// recalc refreshes the advisory distributed total.
func (b *Breakdown) recalc() {
	var total money.Money
	for _, l := range b.Lines {
		total += l.FinalAmount
	}
	b.TotalDistributed = total
}

// roleForLevel names the recipient's position in the chain.
func roleForLevel(level int) string {
	switch level {
	case 1:
		return "Direct Referrer"
	case 2:
		return "Level 2 Upline"
	case 3:
		return "Level 3 Upline"
	default:
		return "Unknown"
	}
}

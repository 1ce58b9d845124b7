// internal/deal/stage.go
package deal

// Stage is a deal's position in the sales pipeline. It is the single
// source of truth for which actions are legal on the deal.
type Stage string

const (
	StageQuoteRequestReceived Stage = "quote_request_received"
	StageQuoteSent            Stage = "quote_sent"
	StageQuoteApproved        Stage = "quote_approved"
	StageAgreementSent        Stage = "agreement_sent"
	StageSignedAwaitingDocs   Stage = "signed_awaiting_docs"
	StageApproved             Stage = "approved"
	StageLiveConfirmLTR       Stage = "live_confirm_ltr"
	StageInvoiceReceived      Stage = "invoice_received"
	StageCompleted            Stage = "completed"
	StageDeclined             Stage = "declined"
)

// pipelineOrder is the canonical forward order. Declined sits outside
// it: any non-terminal stage may jump there directly.
var pipelineOrder = []Stage{
	StageQuoteRequestReceived,
	StageQuoteSent,
	StageQuoteApproved,
	StageAgreementSent,
	StageSignedAwaitingDocs,
	StageApproved,
	StageLiveConfirmLTR,
	StageInvoiceReceived,
	StageCompleted,
}

// successor maps each stage to the only legal forward target. Built
// from pipelineOrder once; transition checks never do index arithmetic.
var successor = func() map[Stage]Stage {
	m := make(map[Stage]Stage, len(pipelineOrder)-1)
	for i := 0; i < len(pipelineOrder)-1; i++ {
		m[pipelineOrder[i]] = pipelineOrder[i+1]
	}
	return m
}()

// Stages returns the canonical forward order plus declined.
func Stages() []Stage {
	out := make([]Stage, len(pipelineOrder), len(pipelineOrder)+1)
	copy(out, pipelineOrder)
	return append(out, StageDeclined)
}

// Valid reports whether s names a known stage.
func (s Stage) Valid() bool {
	if s == StageDeclined {
		return true
	}
	_, ok := successor[s]
	return ok || s == StageCompleted
}

// Terminal reports whether the deal can never move again.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageDeclined
}

// Next returns the canonical successor, if any.
func (s Stage) Next() (Stage, bool) {
	next, ok := successor[s]
	return next, ok
}

// CanTransition reports whether from → to is a legal transition: the
// immediate successor, or the declined escape from any non-terminal
// stage.
func CanTransition(from, to Stage) bool {
	if from.Terminal() {
		return false
	}
	if to == StageDeclined {
		return true
	}
	next, ok := from.Next()
	return ok && to == next
}

// CommissionEligible reports whether the deal has progressed far enough
// for a commission breakdown to be calculated (at or after approved).
func (s Stage) CommissionEligible() bool {
	seen := false
	for _, st := range pipelineOrder {
		if st == StageApproved {
			seen = true
		}
		if st == s {
			return seen
		}
	}
	return false
}

// ProductType categorises what the business is buying.
type ProductType string

const (
	ProductCardPayments    ProductType = "card_payments"
	ProductBusinessFunding ProductType = "business_funding"
	ProductUtilities       ProductType = "utilities"
	ProductInsurance       ProductType = "insurance"
	ProductCustom          ProductType = "custom"
)

func (p ProductType) Valid() bool {
	switch p {
	case ProductCardPayments, ProductBusinessFunding, ProductUtilities, ProductInsurance, ProductCustom:
		return true
	}
	return false
}

// QuoteDeliveryMethod says how the quote reaches the business.
type QuoteDeliveryMethod string

const (
	QuoteDeliverySystem QuoteDeliveryMethod = "system"
	QuoteDeliveryEmail  QuoteDeliveryMethod = "email"
)

func (q QuoteDeliveryMethod) Valid() bool {
	return q == QuoteDeliverySystem || q == QuoteDeliveryEmail
}

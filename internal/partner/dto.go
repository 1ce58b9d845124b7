package partner

import (
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/approval"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/deal"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

// SummaryDTO aggregates a partner's pipeline and commission position
// for the dashboard.
type SummaryDTO struct {
	ID                   uint        `json:"id"`
	FirstName            string      `json:"firstName"`
	LastName             string      `json:"lastName"`
	Email                string      `json:"email"`
	Phone                string      `json:"phone"`
	ActiveDeals          int         `json:"activeDeals"`
	CompletedDeals       int         `json:"completedDeals"`
	CommissionReceived   money.Money `json:"commissionReceived"`
	CommissionReceivable money.Money `json:"commissionReceivable"`
}

// BuildSummaryDTO folds a partner's deals and commission approvals into
// the dashboard summary. Received counts approved lines already paid
// out; receivable counts approved lines still awaiting payment.
// Pending and rejected lines contribute to neither figure.
func BuildSummaryDTO(p Partner, deals []deal.Deal, approvals []approval.CommissionApproval) SummaryDTO {
	active, completed := 0, 0
	for _, d := range deals {
		switch {
		case d.Stage == deal.StageCompleted:
			completed++
		case !d.Stage.Terminal():
			active++
		}
	}

	var received, receivable money.Money
	for _, a := range approvals {
		if a.ApprovalStatus != approval.StatusApproved {
			continue
		}
		if a.PaymentStatus == approval.PaymentCompleted {
			received = received.Add(a.FinalAmount)
		} else {
			receivable = receivable.Add(a.FinalAmount)
		}
	}

	return SummaryDTO{
		ID:                   p.ID,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		Email:                p.Email,
		Phone:                p.Phone,
		ActiveDeals:          active,
		CompletedDeals:       completed,
		CommissionReceived:   received,
		CommissionReceivable: receivable,
	}
}

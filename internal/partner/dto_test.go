package partner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/approval"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/deal"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

func TestBuildSummaryDTO(t *testing.T) {
	p := Partner{FirstName: "Erin", LastName: "Shaw", Email: "erin@example.com"}
	p.ID = 5

	deals := []deal.Deal{
		{Stage: deal.StageQuoteSent},
		{Stage: deal.StageApproved},
		{Stage: deal.StageCompleted},
		{Stage: deal.StageDeclined},
	}
	approvals := []approval.CommissionApproval{
		{ApprovalStatus: approval.StatusApproved, PaymentStatus: approval.PaymentCompleted, FinalAmount: money.FromPounds(600)},
		{ApprovalStatus: approval.StatusApproved, PaymentStatus: approval.PaymentPending, FinalAmount: money.FromPounds(200)},
		{ApprovalStatus: approval.StatusPending, PaymentStatus: approval.PaymentPending, FinalAmount: money.FromPounds(100)},
		{ApprovalStatus: approval.StatusRejected, PaymentStatus: approval.PaymentPending, FinalAmount: money.FromPounds(50)},
	}

	dto := BuildSummaryDTO(p, deals, approvals)

	assert.Equal(t, uint(5), dto.ID)
	assert.Equal(t, 2, dto.ActiveDeals)
	assert.Equal(t, 1, dto.CompletedDeals)
	assert.Equal(t, "600.00", dto.CommissionReceived.String())
	assert.Equal(t, "200.00", dto.CommissionReceivable.String())
}

// internal/notification/notifier.go
package notification

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the core.
const (
	EventDealStageChanged        = "deal.stage_changed"
	EventCommissionReady         = "commission.ready_for_approval"
	EventCommissionWithdrawn     = "commission.withdrawn"
	EventCommissionPaymentMarked = "commission.payment_processed"
)

// Event is the webhook payload shape.
type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurredAt"`
	Payload    map[string]interface{} `json:"payload"`
}

// Notifier posts events to a webhook endpoint. Delivery is best effort:
// sends run on their own goroutine and failures are only logged, so a
// broken endpoint can never fail a core operation. A nil Notifier or an
// empty URL disables delivery entirely.
type Notifier struct {
	WebhookURL string
	Client     *http.Client
}

func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Emit dispatches one event asynchronously.
func (n *Notifier) Emit(eventType string, payload map[string]interface{}) {
	if n == nil || n.WebhookURL == "" {
		return
	}
	ev := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	go n.send(ev)
}

func (n *Notifier) send(ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("notification: marshal %s: %v", ev.Type, err)
		return
	}
	resp, err := n.Client.Post(n.WebhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Printf("notification: deliver %s: %v", ev.Type, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("notification: deliver %s: endpoint returned %d", ev.Type, resp.StatusCode)
	}
}

// DealStageChanged reports a pipeline transition.
func (n *Notifier) DealStageChanged(dealID uint, from, to string) {
	n.Emit(EventDealStageChanged, map[string]interface{}{
		"dealId": dealID,
		"from":   from,
		"to":     to,
	})
}

// CommissionReady tells a recipient a commission line awaits their decision.
func (n *Notifier) CommissionReady(approvalID, recipientID uint, amount string) {
	n.Emit(EventCommissionReady, map[string]interface{}{
		"approvalId":  approvalID,
		"recipientId": recipientID,
		"amount":      amount,
	})
}

// CommissionWithdrawn reports a completed payout.
func (n *Notifier) CommissionWithdrawn(approvalID uint, transferReference string) {
	n.Emit(EventCommissionWithdrawn, map[string]interface{}{
		"approvalId":        approvalID,
		"transferReference": transferReference,
	})
}

// PaymentProcessed reports a payment marked complete by an admin.
func (n *Notifier) PaymentProcessed(approvalID uint, paymentReference string) {
	n.Emit(EventCommissionPaymentMarked, map[string]interface{}{
		"approvalId":       approvalID,
		"paymentReference": paymentReference,
	})
}

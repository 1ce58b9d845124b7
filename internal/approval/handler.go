// internal/approval/handler.go
package approval

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/auth"
)

type Handler struct {
	DB      *gorm.DB
	Repo    *Repository
	Service *Service
}

func NewHandler(db *gorm.DB, svc *Service) *Handler {
	return &Handler{DB: db, Repo: svc.Repo, Service: svc}
}

// Approve handles POST /approvals/{id}/approve (recipient only).
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decideHandler(w, r, h.Service.Approve)
}

// Reject handles POST /approvals/{id}/reject (recipient only).
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decideHandler(w, r, h.Service.Reject)
}

func (h *Handler) decideHandler(w http.ResponseWriter, r *http.Request, decide func(uint, uint) (*CommissionApproval, error)) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid approval ID", http.StatusBadRequest)
		return
	}
	actorID, _, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	a, err := decide(uint(id), actorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a)
}

// ProcessPayment handles POST /approvals/{id}/payment (admin only).
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid approval ID", http.StatusBadRequest)
		return
	}

	var payload struct {
		PaymentReference string `json:"paymentReference"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}

	a, err := h.Service.ProcessPayment(uint(id), payload.PaymentReference)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a)
}

// Withdraw handles POST /approvals/{id}/withdraw (admin only). A repeat
// call answers 200 with the original ledger entry.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid approval ID", http.StatusBadRequest)
		return
	}

	var payload struct {
		TransferReference string `json:"transferReference"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}

	entry, err := h.Service.Withdraw(uint(id), payload.TransferReference)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entry)
}

// Get handles GET /approvals/{id} (admin or the line recipient).
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	a, err := h.Repo.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "approval not found", http.StatusNotFound)
		return
	}

	actorID, isAdmin, _ := auth.ActorFromContext(r.Context())
	if !isAdmin && a.RecipientID != actorID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a)
}

// ListByRecipient handles GET /partners/{id}/approvals, scoped to the
// caller unless they are an admin.
func (h *Handler) ListByRecipient(w http.ResponseWriter, r *http.Request) {
	pid, _ := strconv.Atoi(mux.Vars(r)["id"])

	actorID, isAdmin, _ := auth.ActorFromContext(r.Context())
	if !isAdmin && uint(pid) != actorID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	list, err := h.Repo.ListByRecipient(h.DB, uint(pid))
	if err != nil {
		http.Error(w, "could not list approvals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// ListByDeal handles GET /deals/{id}/approvals (admin only).
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	dealID, _ := strconv.Atoi(mux.Vars(r)["id"])

	list, err := h.Repo.ListByDeal(h.DB, uint(dealID))
	if err != nil {
		http.Error(w, "could not list approvals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrApprovalNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "approval not found", http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrAlreadyDecided),
		errors.Is(err, ErrNotApproved),
		errors.Is(err, ErrAlreadyPaid):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "operation failed", http.StatusInternalServerError)
	}
}

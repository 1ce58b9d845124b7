// internal/breakdown/handler.go
package breakdown

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/deal"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

// Handler exposes the calculator over HTTP. Calculate and Override are
// read-only/pure; only Finalize writes.
type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

var validate = validator.New()

type calculateDTO struct {
	TotalPayable string `json:"totalPayable" validate:"required"`
}

type overrideDTO struct {
	Breakdown Breakdown `json:"breakdown" validate:"required"`
	Level     int       `json:"level" validate:"required,min=1,max=3"`
	Amount    string    `json:"amount" validate:"required"`
}

type finalizeDTO struct {
	Breakdown        Breakdown `json:"breakdown" validate:"required"`
	PaymentReference string    `json:"paymentReference"`
}

// Calculate handles POST /deals/{id}/breakdown (admin only).
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal ID", http.StatusBadRequest)
		return
	}

	var dto calculateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	total, err := money.Parse(dto.TotalPayable)
	if err != nil {
		http.Error(w, "invalid total payable amount", http.StatusBadRequest)
		return
	}

	b, err := h.Service.Calculate(uint(dealID), total)
	if err != nil {
		writeCalcError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(b)
}

// Override handles POST /breakdown/override (admin only). Stateless:
// the adjusted breakdown comes back in the response and nothing is
// persisted until Finalize.
func (h *Handler) Override(w http.ResponseWriter, r *http.Request) {
	var dto overrideDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	amount, err := money.Parse(dto.Amount)
	if err != nil {
		http.Error(w, "invalid override amount", http.StatusBadRequest)
		return
	}

	if err := ApplyOverride(&dto.Breakdown, dto.Level, amount); err != nil {
		writeCalcError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(dto.Breakdown)
}

// Finalize handles POST /deals/{id}/breakdown/finalize (admin only).
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	dealID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal ID", http.StatusBadRequest)
		return
	}

	var dto finalizeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	approvals, err := h.Service.Finalize(uint(dealID), &dto.Breakdown, dto.PaymentReference)
	if err != nil {
		writeCalcError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(approvals)
}

func writeCalcError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deal.ErrDealNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "deal not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrNegativeOverride),
		errors.Is(err, ErrNoReferrerChain),
		errors.Is(err, ErrLevelNotFound),
		errors.Is(err, ErrDealMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrAlreadyFinalized),
		errors.Is(err, ErrStageNotEligible):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "calculation failed", http.StatusInternalServerError)
	}
}

// internal/deal/handler.go
package deal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/auth"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/money"
)

// Handler wires deal routes to the service and repository.
type Handler struct {
	DB      *gorm.DB
	Repo    Repository
	Service *Service
}

func NewHandler(db *gorm.DB, svc *Service) *Handler {
	return &Handler{DB: db, Repo: svc.Repo, Service: svc}
}

var validate = validator.New()

type submitDealDTO struct {
	BusinessName        string `json:"businessName" validate:"required"`
	ContactName         string `json:"contactName"`
	ContactEmail        string `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone        string `json:"contactPhone"`
	ProductType         string `json:"productType" validate:"required"`
	QuoteDeliveryMethod string `json:"quoteDeliveryMethod" validate:"required"`
	BusinessCategory    string `json:"businessCategory"`
	MonthlyVolume       string `json:"monthlyVolume"`
	Notes               string `json:"notes"`
}

type advanceStageDTO struct {
	Target              string `json:"target" validate:"required"`
	ProductType         string `json:"productType"`
	QuoteDeliveryMethod string `json:"quoteDeliveryMethod"`
	Notes               string `json:"notes"`
}

// Submit handles POST /deals (partner creates a referral).
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actorID, _, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var dto submitDealDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !ProductType(dto.ProductType).Valid() {
		http.Error(w, "unknown product type", http.StatusBadRequest)
		return
	}
	if !QuoteDeliveryMethod(dto.QuoteDeliveryMethod).Valid() {
		http.Error(w, "unknown quote delivery method", http.StatusBadRequest)
		return
	}

	in := SubmitInput{
		BusinessName:        dto.BusinessName,
		ContactName:         dto.ContactName,
		ContactEmail:        dto.ContactEmail,
		ContactPhone:        dto.ContactPhone,
		ProductType:         ProductType(dto.ProductType),
		QuoteDeliveryMethod: QuoteDeliveryMethod(dto.QuoteDeliveryMethod),
		BusinessCategory:    dto.BusinessCategory,
		Notes:               dto.Notes,
	}
	if dto.MonthlyVolume != "" {
		vol, err := money.Parse(dto.MonthlyVolume)
		if err != nil {
			http.Error(w, "invalid monthly volume", http.StatusBadRequest)
			return
		}
		in.MonthlyVolume = &vol
	}

	d, err := h.Service.Submit(in, actorID)
	if err != nil {
		http.Error(w, "could not create deal", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(d)
}

// AdvanceStage handles PATCH /deals/{id}/stage (admin only).
func (h *Handler) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid deal ID", http.StatusBadRequest)
		return
	}
	actorID, _, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var dto advanceStageDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	meta := Metadata{
		ProductType:         ProductType(dto.ProductType),
		QuoteDeliveryMethod: QuoteDeliveryMethod(dto.QuoteDeliveryMethod),
	}
	d, err := h.Service.Advance(uint(id), Stage(dto.Target), meta, actorID, dto.Notes)
	if err != nil {
		writeAdvanceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

func writeAdvanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDealNotFound):
		http.Error(w, "deal not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidMetadata):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrDealTerminal),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "could not advance deal", http.StatusInternalServerError)
	}
}

// FindByID handles GET /deals/{id} (admin or owning partner).
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	d, err := h.Repo.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}

	actorID, isAdmin, _ := auth.ActorFromContext(r.Context())
	if !isAdmin && d.ReferrerID != actorID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

// List handles GET /deals (admin; optional ?stage= filter).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		list []Deal
		err  error
	)
	if stage := r.URL.Query().Get("stage"); stage != "" {
		if !Stage(stage).Valid() {
			http.Error(w, "unknown stage", http.StatusBadRequest)
			return
		}
		list, err = h.Repo.ListByStage(h.DB, Stage(stage))
	} else {
		list, err = h.Repo.List(h.DB)
	}
	if err != nil {
		http.Error(w, "could not list deals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// ListByPartner handles GET /partners/{id}/deals.
func (h *Handler) ListByPartner(w http.ResponseWriter, r *http.Request) {
	pid, _ := strconv.Atoi(mux.Vars(r)["id"])

	actorID, isAdmin, _ := auth.ActorFromContext(r.Context())
	if !isAdmin && uint(pid) != actorID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	list, err := h.Repo.ListByReferrer(h.DB, uint(pid))
	if err != nil {
		http.Error(w, "could not list deals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

// AuditTrail handles GET /deals/{id}/audit (admin or owning partner).
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	d, err := h.Repo.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}
	actorID, isAdmin, _ := auth.ActorFromContext(r.Context())
	if !isAdmin && d.ReferrerID != actorID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	trail, err := h.Service.AuditTrail(uint(id))
	if err != nil {
		http.Error(w, "could not load audit trail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(trail)
}

// UpdateAdminNotes handles PATCH /deals/{id}/admin-notes (admin only).
func (h *Handler) UpdateAdminNotes(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var payload struct {
		AdminNotes string `json:"adminNotes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	d, err := h.Repo.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}

	if err := h.DB.Model(d).Update("admin_notes", payload.AdminNotes).Error; err != nil {
		http.Error(w, "could not update notes", http.StatusInternalServerError)
		return
	}
	d.AdminNotes = payload.AdminNotes

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

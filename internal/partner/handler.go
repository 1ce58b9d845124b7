package partner

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/approval"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/auth"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/deal"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/utils"
)

var validate = validator.New()

type loginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerDTO struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName"`
	Email        string `json:"email" validate:"required,email"`
	Phone        string `json:"phone"`
	Password     string `json:"password" validate:"required,min=8"`
	ReferredByID *uint  `json:"referredById"`
}

type updateDTO struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Password  *string `json:"password" validate:"omitempty,min=8"`
}

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Deals      deal.Repository
	Approvals  *approval.Repository
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{
		DB:         db,
		Repository: NewRepository(),
		Deals:      deal.NewRepository(),
		Approvals:  approval.NewRepository(),
	}
}

// Login issues a JWT for valid credentials.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto loginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.Repository.FindByEmail(h.DB, dto.Email)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !utils.CheckPassword(p.Password, dto.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateAccessToken(p.ID, p.IsAdmin)
	if err != nil {
		http.Error(w, "could not issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"token":              token,
		"needsPasswordReset": p.NeedsPasswordReset,
	})
}

// Register creates a partner account. Open endpoint; referral linkage
// is taken at face value here and validated only for existence.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto registerDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if dto.ReferredByID != nil {
		if _, err := h.Repository.FindByID(h.DB, *dto.ReferredByID); err != nil {
			http.Error(w, "referring partner not found", http.StatusBadRequest)
			return
		}
	}

	hash, err := utils.HashPassword(dto.Password)
	if err != nil {
		http.Error(w, "could not process password", http.StatusInternalServerError)
		return
	}

	p := Partner{
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Email:        dto.Email,
		Phone:        dto.Phone,
		Password:     hash,
		ReferredByID: dto.ReferredByID,
	}
	if err := h.Repository.Create(h.DB, &p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		http.Error(w, "could not save partner", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(p)
}

// List returns every partner for admins, or just the caller's own
// record otherwise.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	if isAdmin {
		partners, err := h.Repository.List(h.DB)
		if err != nil {
			http.Error(w, "could not list partners", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(partners)
		return
	}

	p, err := h.Repository.FindByID(h.DB, userID)
	if err != nil {
		http.Error(w, "partner not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode([]Partner{*p})
}

// Get returns one partner. Non-admins can only fetch themselves.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid partner ID", http.StatusBadRequest)
		return
	}
	if !isAdmin && uint(id) != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	p, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "partner not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

// Me returns the authenticated partner.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	p, err := h.Repository.FindByID(h.DB, userID)
	if err != nil {
		http.Error(w, "partner not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

// Update changes a partner's own fields. Non-admins can only update
// themselves; email, admin flag and referral linkage are immutable
// through this endpoint.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid partner ID", http.StatusBadRequest)
		return
	}
	if !isAdmin && uint(id) != userID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	var dto updateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "partner not found", http.StatusNotFound)
		return
	}

	if dto.FirstName != nil {
		p.FirstName = *dto.FirstName
	}
	if dto.LastName != nil {
		p.LastName = *dto.LastName
	}
	if dto.Phone != nil {
		p.Phone = *dto.Phone
	}
	if dto.Password != nil {
		hash, err := utils.HashPassword(*dto.Password)
		if err != nil {
			http.Error(w, "could not process password", http.StatusInternalServerError)
			return
		}
		p.Password = hash
		p.NeedsPasswordReset = false
	}

	if err := h.Repository.Update(h.DB, p); err != nil {
		http.Error(w, "could not update partner", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

// Summary builds the dashboard DTO. Admins may pass any partner ID;
// everyone else gets their own.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	target := userID
	if isAdmin {
		if idStr := mux.Vars(r)["id"]; idStr != "" {
			if i, err := strconv.Atoi(idStr); err == nil {
				target = uint(i)
			}
		}
	}

	p, err := h.Repository.FindByID(h.DB, target)
	if err != nil {
		http.Error(w, "partner not found", http.StatusNotFound)
		return
	}

	deals, err := h.Deals.ListByReferrer(h.DB, p.ID)
	if err != nil {
		http.Error(w, "could not load deals", http.StatusInternalServerError)
		return
	}
	approvals, err := h.Approvals.ListByRecipient(h.DB, p.ID)
	if err != nil {
		http.Error(w, "could not load commissions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(BuildSummaryDTO(*p, deals, approvals))
}

// ResetPassword issues a temporary password for a partner and flags the
// account for a forced change on next login. Admin only.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid partner ID", http.StatusBadRequest)
		return
	}

	p, err := h.Repository.FindByID(h.DB, uint(id))
	if err != nil {
		http.Error(w, "partner not found", http.StatusNotFound)
		return
	}

	temp, err := utils.GenerateTemporaryPassword()
	if err != nil {
		http.Error(w, "could not generate password", http.StatusInternalServerError)
		return
	}
	hash, err := utils.HashPassword(temp)
	if err != nil {
		http.Error(w, "could not process password", http.StatusInternalServerError)
		return
	}

	p.Password = hash
	p.NeedsPasswordReset = true
	if err := h.Repository.Update(h.DB, p); err != nil {
		http.Error(w, "could not update partner", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"temporaryPassword": temp})
}

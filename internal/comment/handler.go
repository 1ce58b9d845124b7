package comment

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/auth"
	"github.com/time-consulting/PartnerConnector-10.0-sub000/internal/deal"
)

type Handler struct {
	DB    *gorm.DB
	Repo  *Repository
	Deals deal.Repository
}

func NewHandler(db *gorm.DB, deals deal.Repository) *Handler {
	return &Handler{DB: db, Repo: NewRepository(), Deals: deals}
}

type createCommentDTO struct {
	Text string `json:"text"`
}

// Create handles POST /deals/{id}/comments (admin or owning partner).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	dealID, _ := strconv.Atoi(mux.Vars(r)["id"])

	actorID, isAdmin, ok := auth.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	d, err := h.Deals.FindByID(h.DB, uint(dealID))
	if err != nil {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}
	if !isAdmin && d.ReferrerID != actorID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	var dto createCommentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(dto.Text) == "" {
		http.Error(w, "the 'text' field is required", http.StatusBadRequest)
		return
	}

	c := &Comment{
		Text:     strings.TrimSpace(dto.Text),
		DealID:   uint(dealID),
		AuthorID: actorID,
	}
	if err := h.Repo.Create(h.DB, c); err != nil {
		http.Error(w, "could not save comment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(c)
}

// ListByDeal handles GET /deals/{id}/comments.
func (h *Handler) ListByDeal(w http.ResponseWriter, r *http.Request) {
	dealID, _ := strconv.Atoi(mux.Vars(r)["id"])

	actorID, isAdmin, _ := auth.ActorFromContext(r.Context())
	d, err := h.Deals.FindByID(h.DB, uint(dealID))
	if err != nil {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}
	if !isAdmin && d.ReferrerID != actorID {
		http.Error(w, "access denied", http.StatusForbidden)
		return
	}

	list, err := h.Repo.ListByDeal(h.DB, uint(dealID))
	if err != nil {
		http.Error(w, "could not list comments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

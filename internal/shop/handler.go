package shop

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/craftrealm/realm-api/internal/apierr"
	"github.com/craftrealm/realm-api/internal/middleware"
	"github.com/craftrealm/realm-api/internal/models"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns the catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, items)
}

// Buy purchases the item named in the path.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apierr.WriteError(w, r, models.ErrItemNotFound)
		return
	}

	item, balance, err := h.svc.Buy(r.Context(), middleware.CurrentUser(r.Context()), id)
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	apierr.WriteJSON(w, http.StatusOK, models.Receipt{
		Message:          "Achat réussi !",
		Item:             item.Name,
		RemainingCredits: balance,
	})
}

// Inventory lists the caller's purchases.
func (h *Handler) Inventory(w http.ResponseWriter, r *http.Request) {
	credits, entries, err := h.svc.Inventory(r.Context(), middleware.CurrentUser(r.Context()))
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, models.NewInventory(credits, entries))
}

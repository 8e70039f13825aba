package faction

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

type joinResponse struct {
	Message string               `json:"message"`
	Faction models.JoinedFaction `json:"faction"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func factionID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, models.ErrFactionNotFound
	}
	return id, nil
}

// Create founds a faction led by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFactionRequest
	if err := apierr.DecodeJSON(r, &req); err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	caller := middleware.CurrentUser(r.Context())
	f, balance, err := h.svc.Create(r.Context(), caller, req)
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	apierr.WriteJSON(w, http.StatusCreated, models.FactionCreated{
		Message: "Faction créée avec succès",
		Faction: models.FactionView{
			ID:          f.ID,
			Name:        f.Name,
			Description: f.Description,
			Power:       f.Power,
			Leader:      caller.PseudoMC,
		},
		RemainingCredits: balance,
	})
}

// List returns every faction.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.List(r.Context())
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}
	out := make([]models.FactionListing, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, models.NewFactionListing(s))
	}
	apierr.WriteJSON(w, http.StatusOK, out)
}

// Join adds the caller to the faction in the path.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	id, err := factionID(r)
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	f, err := h.svc.Join(r.Context(), middleware.CurrentUser(r.Context()), id)
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	apierr.WriteJSON(w, http.StatusOK, joinResponse{
		Message: "Vous avez rejoint la faction",
		Faction: models.JoinedFaction{ID: f.ID, Name: f.Name, Description: f.Description},
	})
}

// Dissolve deletes the faction in the path.
func (h *Handler) Dissolve(w http.ResponseWriter, r *http.Request) {
	id, err := factionID(r)
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	if err := h.svc.Dissolve(r.Context(), middleware.CurrentUser(r.Context()), id); err != nil {
		apierr.WriteError(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, messageResponse{Message: "Faction dissoute"})
}

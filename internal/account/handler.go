package account

import (
	"net/http"

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

type updateResponse struct {
	Message string             `json:"message"`
	User    models.UpdatedUser `json:"user"`
}

// Me returns the caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	apierr.WriteJSON(w, http.StatusOK, models.NewProfile(middleware.CurrentUser(r.Context())))
}

// UpdateMe applies a partial profile update.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := apierr.DecodeJSON(r, &req); err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), middleware.CurrentUser(r.Context()), req)
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	apierr.WriteJSON(w, http.StatusOK, updateResponse{
		Message: "Profil mis à jour",
		User: models.UpdatedUser{
			ID:       user.ID,
			Email:    user.Email,
			PseudoMC: user.PseudoMC,
			UUIDMC:   user.UUIDMC,
			Credits:  user.Credits,
		},
	})
}

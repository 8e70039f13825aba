package auth

import (
	"net/http"

	"github.com/craftrealm/realm-api/internal/apierr"
	"github.com/craftrealm/realm-api/internal/models"
)

// Handler holds auth-related HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerResponse struct {
	Message string             `json:"message"`
	User    models.UserSummary `json:"user"`
}

type loginResponse struct {
	Message string             `json:"message"`
	Token   string             `json:"token"`
	User    models.UserSummary `json:"user"`
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := apierr.DecodeJSON(r, &req); err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	user, err := h.svc.Register(r.Context(), req)
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	apierr.WriteJSON(w, http.StatusCreated, registerResponse{
		Message: "Inscription réussie",
		User:    models.NewUserSummary(user),
	})
}

// Login authenticates a user and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := apierr.DecodeJSON(r, &req); err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	token, user, err := h.svc.Login(r.Context(), req)
	if err != nil {
		apierr.WriteError(w, r, err)
		return
	}

	apierr.WriteJSON(w, http.StatusOK, loginResponse{
		Message: "Connexion réussie",
		Token:   token,
		User:    models.NewUserSummary(user),
	})
}

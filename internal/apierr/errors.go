// Package apierr turns domain errors into JSON HTTP responses.
package apierr

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/craftrealm/realm-api/internal/logging"
	"github.com/craftrealm/realm-api/internal/models"
)

// ErrorResponse is the body of every error response. Required and
// Available are only set for insufficient funds.
type ErrorResponse struct {
	Error     string `json:"error"`
	Required  *int   `json:"requis,omitempty"`
	Available *int   `json:"disponibles,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON decodes the request body into v. An empty body leaves v
// untouched; malformed JSON is a validation error.
func DecodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return models.Invalid("Corps de requête invalide")
}

// WriteError writes the response for err. Internal errors are logged with
// the request's logger and hidden from the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := Translate(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).WithError(err).Error("request failed")
	}
	WriteJSON(w, status, body)
}

// Translate maps err to its HTTP status and response body.
func Translate(err error) (int, ErrorResponse) {
	switch models.KindOf(err) {
	case models.KindInsufficientFunds:
		var funds *models.InsufficientFundsError
		errors.As(err, &funds)
		required, available := funds.Required, funds.Available
		return http.StatusBadRequest, ErrorResponse{
			Error:     "Crédits insuffisants",
			Required:  &required,
			Available: &available,
		}
	case models.KindValidation:
		var invalid *models.ValidationError
		errors.As(err, &invalid)
		return http.StatusBadRequest, ErrorResponse{Error: invalid.Message}
	case models.KindUnauthenticated:
		if errors.Is(err, models.ErrInvalidCredentials) {
			return http.StatusUnauthorized, ErrorResponse{Error: "Identifiants incorrects"}
		}
		return http.StatusUnauthorized, ErrorResponse{Error: "Non authentifié"}
	case models.KindConflict:
		return http.StatusBadRequest, ErrorResponse{Error: conflictMessage(err)}
	case models.KindNotFound:
		return http.StatusNotFound, ErrorResponse{Error: notFoundMessage(err)}
	case models.KindForbidden:
		return http.StatusForbidden, ErrorResponse{Error: "Permission refusée"}
	case models.KindRateLimited:
		return http.StatusTooManyRequests, ErrorResponse{Error: "Trop de requêtes, réessayez plus tard"}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Erreur interne"}
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrEmailTaken):
		return "Cet email est déjà utilisé"
	case errors.Is(err, models.ErrFactionNameTaken):
		return "Ce nom de faction est déjà utilisé"
	default:
		return "Vous êtes déjà dans une faction"
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrItemNotFound):
		return "Item introuvable"
	case errors.Is(err, models.ErrFactionNotFound):
		return "Faction introuvable"
	default:
		return "Ressource introuvable"
	}
}

// NotFound is the JSON handler for unmatched routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: "Ressource introuvable"})
}

// MethodNotAllowed is the JSON handler for known routes hit with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Méthode non autorisée"})
}

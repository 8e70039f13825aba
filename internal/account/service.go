package account

import (
	"context"

	"github.com/craftrealm/realm-api/internal/models"
)

// ProfileStore is the persistence the account service needs.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, userID int64, pseudo, uuid *string) (*models.User, error)
}

type Service struct {
	users ProfileStore
}

func NewService(users ProfileStore) *Service {
	return &Service{users: users}
}

// UpdateProfile applies the fields present in req and leaves the others
// untouched.
func (s *Service) UpdateProfile(ctx context.Context, caller *models.User, req models.UpdateProfileRequest) (*models.User, error) {
	if req.PseudoMC == nil && req.UUIDMC == nil {
		return caller, nil
	}

	uuid := req.UUIDMC
	if uuid != nil {
		canonical, err := models.CanonicalMinecraftUUID(*uuid)
		if err != nil {
			return nil, err
		}
		uuid = &canonical
	}
	return s.users.UpdateProfile(ctx, caller.ID, req.PseudoMC, uuid)
}

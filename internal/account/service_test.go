package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/craftrealm/realm-api/internal/models"
	"github.com/craftrealm/realm-api/internal/store"
)

func strPtr(s string) *string { return &s }

type AccountServiceSuite struct {
	suite.Suite
	ctx    context.Context
	store  *store.MemoryStore
	svc    *Service
	caller *models.User
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewMemoryStore()
	s.svc = NewService(s.store)

	u, err := s.store.CreateUser(s.ctx, &models.User{
		Email:        "steve@craftrealm.fr",
		Roles:        []models.Role{models.RoleUser},
		PseudoMC:     strPtr("Steve"),
		Credits:      1000,
		RegisteredAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.caller = u
}

func (s *AccountServiceSuite) TestPartialUpdateKeepsAbsentFields() {
	u, err := s.svc.UpdateProfile(s.ctx, s.caller, models.UpdateProfileRequest{
		UUIDMC: strPtr("853c80ef-3c37-49fd-aa49-938b674adae6"),
	})
	s.Require().NoError(err)

	s.Equal("Steve", *u.PseudoMC)
	s.Equal("853c80ef-3c37-49fd-aa49-938b674adae6", *u.UUIDMC)

	u, err = s.svc.UpdateProfile(s.ctx, u, models.UpdateProfileRequest{PseudoMC: strPtr("Herobrine")})
	s.Require().NoError(err)
	s.Equal("Herobrine", *u.PseudoMC)
	s.Equal("853c80ef-3c37-49fd-aa49-938b674adae6", *u.UUIDMC)
	s.Equal(1000, u.Credits)
}

func (s *AccountServiceSuite) TestEmptyUpdateIsNoop() {
	u, err := s.svc.UpdateProfile(s.ctx, s.caller, models.UpdateProfileRequest{})
	s.Require().NoError(err)
	s.Equal(s.caller, u)
}

func (s *AccountServiceSuite) TestInvalidUUIDRejected() {
	_, err := s.svc.UpdateProfile(s.ctx, s.caller, models.UpdateProfileRequest{
		PseudoMC: strPtr("Alex"),
		UUIDMC:   strPtr("zzz"),
	})
	s.Equal(models.KindValidation, models.KindOf(err))

	stored, err := s.store.GetUserByID(s.ctx, s.caller.ID)
	s.Require().NoError(err)
	s.Equal("Steve", *stored.PseudoMC)
	s.Nil(stored.UUIDMC)
}

package auth

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/craftrealm/realm-api/internal/clock"
	"github.com/craftrealm/realm-api/internal/models"
)

// tokenAttempts bounds retries when a generated token is already assigned.
const tokenAttempts = 3

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByToken(ctx context.Context, token string) (*models.User, error)
	SetToken(ctx context.Context, userID int64, token string) error
}

// Service registers users, issues bearer tokens and resolves them.
type Service struct {
	users    UserStore
	hasher   *Hasher
	clock    clock.Clock
	log      logrus.FieldLogger
	newToken func() (string, error)
}

func NewService(users UserStore, hasher *Hasher, clk clock.Clock, log logrus.FieldLogger) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		clock:    clk,
		log:      log,
		newToken: NewToken,
	}
}

// Register creates a ROLE_USER account credited with the signup bonus.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if req.Email == "" || req.Password == "" {
		return nil, models.Invalid("Email et password requis")
	}

	u := &models.User{
		Email:        req.Email,
		Roles:        []models.Role{models.RoleUser},
		PseudoMC:     req.PseudoMC,
		Credits:      models.SignupBonus,
		RegisteredAt: s.clock.Now(),
	}
	if req.UUIDMC != nil {
		canonical, err := models.CanonicalMinecraftUUID(*req.UUIDMC)
		if err != nil {
			return nil, err
		}
		u.UUIDMC = &canonical
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	u.Password = hashed

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// Login checks the credentials and stores a fresh token on the user,
// replacing any token issued before.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	if req.Email == "" || req.Password == "" {
		return "", nil, models.Invalid("Email et password requis")
	}

	u, err := s.users.GetUserByEmail(ctx, req.Email)
	if errors.Is(err, models.ErrUserNotFound) {
		return "", nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if !s.hasher.Verify(u.Password, req.Password) {
		return "", nil, models.ErrInvalidCredentials
	}

	for attempt := 1; ; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return "", nil, err
		}
		err = s.users.SetToken(ctx, u.ID, token)
		if errors.Is(err, models.ErrTokenCollision) && attempt < tokenAttempts {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		u.APIToken = &token
		return token, u, nil
	}
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, models.ErrUnauthenticated
	}
	u, err := s.users.GetUserByToken(ctx, token)
	if errors.Is(err, models.ErrUserNotFound) {
		return nil, models.ErrUnauthenticated
	}
	return u, err
}

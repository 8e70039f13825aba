package faction

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/craftrealm/realm-api/internal/audit"
	"github.com/craftrealm/realm-api/internal/clock"
	"github.com/craftrealm/realm-api/internal/metrics"
	"github.com/craftrealm/realm-api/internal/models"
)

// FactionStore is the persistence the faction service needs.
type FactionStore interface {
	CreateFaction(ctx context.Context, f models.Faction, cost int) (*models.Faction, int, error)
	GetFaction(ctx context.Context, id int64) (*models.Faction, error)
	ListFactions(ctx context.Context) ([]models.FactionSummary, error)
	JoinFaction(ctx context.Context, userID, factionID int64) error
	DissolveFaction(ctx context.Context, factionID int64) (int, error)
}

type Service struct {
	store   FactionStore
	journal *audit.Journal
	clock   clock.Clock
	log     logrus.FieldLogger
}

func NewService(st FactionStore, journal *audit.Journal, clk clock.Clock, log logrus.FieldLogger) *Service {
	return &Service{store: st, journal: journal, clock: clk, log: log}
}

// Create founds a faction led by caller. Checks run in this order: caller
// already has a faction, caller cannot pay the fee, name is missing, name
// is taken. The store repeats the first two under a row lock.
func (s *Service) Create(ctx context.Context, caller *models.User, req models.CreateFactionRequest) (*models.Faction, int, error) {
	if caller.FactionID != nil {
		return nil, 0, models.ErrAlreadyInFaction
	}
	if caller.Credits < models.FactionCost {
		return nil, 0, &models.InsufficientFundsError{Required: models.FactionCost, Available: caller.Credits}
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, 0, models.Invalid("Nom de faction requis")
	}

	f, balance, err := s.store.CreateFaction(ctx, models.Faction{
		Name:        *req.Name,
		Description: req.Description,
		LeaderID:    caller.ID,
		CreatedAt:   s.clock.Now(),
	}, models.FactionCost)
	if err != nil {
		return nil, 0, err
	}

	metrics.RecordFactionCreated(models.FactionCost)
	s.journal.Record(ctx, audit.Event{
		Kind:      audit.KindFactionCreated,
		UserID:    caller.ID,
		FactionID: &f.ID,
		Amount:    models.FactionCost,
		Balance:   balance,
		Members:   1,
		At:        f.CreatedAt,
	})
	s.log.WithFields(logrus.Fields{"faction_id": f.ID, "leader_id": caller.ID}).Info("faction created")
	return f, balance, nil
}

// List returns every faction with live member counts.
func (s *Service) List(ctx context.Context) ([]models.FactionSummary, error) {
	return s.store.ListFactions(ctx)
}

// Join adds caller to the faction at no cost.
func (s *Service) Join(ctx context.Context, caller *models.User, factionID int64) (*models.Faction, error) {
	if caller.FactionID != nil {
		return nil, models.ErrAlreadyInFaction
	}
	f, err := s.store.GetFaction(ctx, factionID)
	if err != nil {
		return nil, err
	}
	if err := s.store.JoinFaction(ctx, caller.ID, f.ID); err != nil {
		return nil, err
	}

	s.journal.Record(ctx, audit.Event{
		Kind:      audit.KindFactionJoined,
		UserID:    caller.ID,
		FactionID: &f.ID,
		Balance:   caller.Credits,
		At:        s.clock.Now(),
	})
	return f, nil
}

// Dissolve detaches every member and deletes the faction. Only the leader
// or an admin may do it.
func (s *Service) Dissolve(ctx context.Context, caller *models.User, factionID int64) error {
	f, err := s.store.GetFaction(ctx, factionID)
	if err != nil {
		return err
	}
	if f.LeaderID != caller.ID && !caller.IsAdmin() {
		return models.ErrForbidden
	}

	detached, err := s.store.DissolveFaction(ctx, f.ID)
	if err != nil {
		return err
	}

	metrics.RecordFactionDissolved()
	s.journal.Record(ctx, audit.Event{
		Kind:      audit.KindFactionDissolved,
		UserID:    caller.ID,
		FactionID: &f.ID,
		Balance:   caller.Credits,
		Members:   detached,
		At:        s.clock.Now(),
	})
	s.log.WithFields(logrus.Fields{
		"faction_id": f.ID,
		"by":         caller.ID,
		"detached":   detached,
	}).Info("faction dissolved")
	return nil
}

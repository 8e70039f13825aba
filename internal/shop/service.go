package shop

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/craftrealm/realm-api/internal/audit"
	"github.com/craftrealm/realm-api/internal/clock"
	"github.com/craftrealm/realm-api/internal/metrics"
	"github.com/craftrealm/realm-api/internal/models"
)

// ShopStore is the persistence the shop needs.
type ShopStore interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	PurchaseItem(ctx context.Context, userID int64, item models.Item, at time.Time) (int, error)
	ListInventory(ctx context.Context, userID int64) ([]models.InventoryEntry, error)
}

// CatalogCache holds the item list between requests.
type CatalogCache interface {
	Get(ctx context.Context) ([]models.Item, bool, error)
	Set(ctx context.Context, items []models.Item) error
}

type Service struct {
	store   ShopStore
	cache   CatalogCache
	journal *audit.Journal
	clock   clock.Clock
	log     logrus.FieldLogger
}

// NewService builds the shop. cache may be nil to read the store directly.
func NewService(st ShopStore, cache CatalogCache, journal *audit.Journal, clk clock.Clock, log logrus.FieldLogger) *Service {
	return &Service{store: st, cache: cache, journal: journal, clock: clk, log: log}
}

// ListItems returns the whole catalog. Cache failures fall back to the store.
func (s *Service) ListItems(ctx context.Context) ([]models.Item, error) {
	if s.cache != nil {
		items, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.log.WithError(err).Warn("catalog cache read failed")
		} else if ok {
			return items, nil
		}
	}

	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, items); err != nil {
			s.log.WithError(err).Warn("catalog cache write failed")
		}
	}
	return items, nil
}

// Buy debits the item's price from caller and adds one copy to its
// inventory. It returns the item and the remaining balance.
func (s *Service) Buy(ctx context.Context, caller *models.User, itemID int64) (*models.Item, int, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, 0, err
	}
	if caller.Credits < item.Price {
		return nil, 0, &models.InsufficientFundsError{Required: item.Price, Available: caller.Credits}
	}

	at := s.clock.Now()
	balance, err := s.store.PurchaseItem(ctx, caller.ID, *item, at)
	if err != nil {
		return nil, 0, err
	}

	metrics.RecordPurchase(item.Price)
	s.journal.Record(ctx, audit.Event{
		Kind:    audit.KindPurchase,
		UserID:  caller.ID,
		ItemID:  &item.ID,
		Amount:  item.Price,
		Balance: balance,
		At:      at,
	})
	s.log.WithFields(logrus.Fields{
		"user_id": caller.ID,
		"item_id": item.ID,
		"price":   item.Price,
	}).Info("item purchased")
	return item, balance, nil
}

// Inventory returns caller's current balance and every purchased item.
func (s *Service) Inventory(ctx context.Context, caller *models.User) (int, []models.InventoryEntry, error) {
	entries, err := s.store.ListInventory(ctx, caller.ID)
	if err != nil {
		return 0, nil, err
	}
	return caller.Credits, entries, nil
}

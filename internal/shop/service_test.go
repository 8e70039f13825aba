package shop

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/craftrealm/realm-api/internal/audit"
	"github.com/craftrealm/realm-api/internal/clock"
	"github.com/craftrealm/realm-api/internal/logging"
	"github.com/craftrealm/realm-api/internal/models"
	"github.com/craftrealm/realm-api/internal/store"
)

type memoryCache struct {
	items []models.Item
	hit   bool
	gets  int
	sets  int
}

func (c *memoryCache) Get(context.Context) ([]models.Item, bool, error) {
	c.gets++
	return c.items, c.hit, nil
}

func (c *memoryCache) Set(_ context.Context, items []models.Item) error {
	c.sets++
	c.items, c.hit = items, true
	return nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context) ([]models.Item, bool, error) {
	return nil, false, errors.New("redis down")
}

func (brokenCache) Set(context.Context, []models.Item) error {
	return errors.New("redis down")
}

type ShopServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.MemoryStore
	journal *audit.Memory
	clock   *clock.Fixed
	svc     *Service

	sword   models.Item
	elytra  models.Item
	players int
}

func TestShopServiceSuite(t *testing.T) {
	suite.Run(t, new(ShopServiceSuite))
}

func (s *ShopServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewMemoryStore()
	s.journal = &audit.Memory{}
	s.clock = clock.NewFixed(time.Date(2024, 2, 10, 18, 0, 0, 0, time.UTC))
	s.svc = s.newService(nil)

	_, err := s.store.ImportItems(s.ctx, []models.Item{
		{Name: "Épée en diamant", Price: 250, Rarity: "rare"},
		{Name: "Élytres", Price: 800, Rarity: "legendaire"},
	})
	s.Require().NoError(err)
	items, err := s.store.ListItems(s.ctx)
	s.Require().NoError(err)
	s.sword, s.elytra = items[0], items[1]
}

func (s *ShopServiceSuite) newService(cache CatalogCache) *Service {
	return NewService(s.store, cache, audit.NewJournal(s.journal, logging.Discard()), s.clock, logging.Discard())
}

func (s *ShopServiceSuite) user(credits int) *models.User {
	s.players++
	email := fmt.Sprintf("player%d@craftrealm.fr", s.players)
	u, err := s.store.CreateUser(s.ctx, &models.User{Email: email, Credits: credits})
	s.Require().NoError(err)
	return u
}

func (s *ShopServiceSuite) TestBuyDebitsAndGrants() {
	u := s.user(1000)

	item, balance, err := s.svc.Buy(s.ctx, u, s.sword.ID)
	s.Require().NoError(err)
	s.Equal("Épée en diamant", item.Name)
	s.Equal(750, balance)

	stored, err := s.store.GetUserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(750, stored.Credits)

	entries, err := s.store.ListInventory(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(1, entries[0].Quantity)
	s.Equal(s.clock.Now(), entries[0].PurchasedAt)

	events := s.journal.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.KindPurchase, events[0].Kind)
	s.Equal(250, events[0].Amount)
	s.Equal(750, events[0].Balance)
	s.Equal(s.sword.ID, *events[0].ItemID)
}

func (s *ShopServiceSuite) TestBuyingTwiceAddsTwoRows() {
	u := s.user(1000)

	_, _, err := s.svc.Buy(s.ctx, u, s.sword.ID)
	s.Require().NoError(err)
	u, err = s.store.GetUserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	_, balance, err := s.svc.Buy(s.ctx, u, s.sword.ID)
	s.Require().NoError(err)
	s.Equal(500, balance)

	entries, err := s.store.ListInventory(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *ShopServiceSuite) TestBuyInsufficientFundsChangesNothing() {
	u := s.user(500)

	_, _, err := s.svc.Buy(s.ctx, u, s.elytra.ID)
	var funds *models.InsufficientFundsError
	s.Require().ErrorAs(err, &funds)
	s.Equal(800, funds.Required)
	s.Equal(500, funds.Available)

	stored, err := s.store.GetUserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(500, stored.Credits)

	entries, err := s.store.ListInventory(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Empty(entries)
	s.Empty(s.journal.Events())
}

func (s *ShopServiceSuite) TestBuyStaleBalanceRejectedByStore() {
	u := s.user(300)
	stale := *u
	stale.Credits = 5000

	_, _, err := s.svc.Buy(s.ctx, &stale, s.elytra.ID)
	var funds *models.InsufficientFundsError
	s.Require().ErrorAs(err, &funds)
	s.Equal(300, funds.Available)
}

func (s *ShopServiceSuite) TestBuyUnknownItem() {
	u := s.user(1000)
	_, _, err := s.svc.Buy(s.ctx, u, 999)
	s.ErrorIs(err, models.ErrItemNotFound)
}

func (s *ShopServiceSuite) TestInventoryReturnsBalanceAndEntries() {
	u := s.user(1000)
	_, _, err := s.svc.Buy(s.ctx, u, s.sword.ID)
	s.Require().NoError(err)

	u, err = s.store.GetUserByID(s.ctx, u.ID)
	s.Require().NoError(err)
	credits, entries, err := s.svc.Inventory(s.ctx, u)
	s.Require().NoError(err)
	s.Equal(750, credits)
	s.Require().Len(entries, 1)
	s.Equal(s.sword.ID, entries[0].Item.ID)
}

func (s *ShopServiceSuite) TestListItemsReadsThroughCache() {
	cache := &memoryCache{}
	svc := s.newService(cache)

	items, err := svc.ListItems(s.ctx)
	s.Require().NoError(err)
	s.Len(items, 2)
	s.Equal(1, cache.sets)

	_, err = s.store.ImportItems(s.ctx, []models.Item{{Name: "Pomme dorée", Price: 50, Rarity: "commun"}})
	s.Require().NoError(err)

	items, err = svc.ListItems(s.ctx)
	s.Require().NoError(err)
	s.Len(items, 2, "served from cache")
	s.Equal(2, cache.gets)
	s.Equal(1, cache.sets)
}

func (s *ShopServiceSuite) TestListItemsSurvivesBrokenCache() {
	svc := s.newService(brokenCache{})

	items, err := svc.ListItems(s.ctx)
	s.Require().NoError(err)
	s.Len(items, 2)
}

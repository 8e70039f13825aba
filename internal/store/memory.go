package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/craftrealm/realm-api/internal/models"
)

// MemoryStore is an in-process Store for development and tests. A single
// mutex serialises every operation, which gives each one the same
// all-or-nothing behaviour as a Postgres transaction.
type MemoryStore struct {
	mu sync.Mutex

	users     map[int64]*models.User
	items     map[int64]models.Item
	factions  map[int64]models.Faction
	inventory []models.InventoryEntry

	nextUserID      int64
	nextItemID      int64
	nextFactionID   int64
	nextInventoryID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*models.User),
		items:    make(map[int64]models.Item),
		factions: make(map[int64]models.Faction),
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Roles = slices.Clone(u.Roles)
	return &c
}

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, models.ErrEmailTaken
		}
	}
	s.nextUserID++
	created := copyUser(u)
	created.ID = s.nextUserID
	s.users[created.ID] = created
	return copyUser(created), nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Email == email })
}

func (s *MemoryStore) GetUserByToken(_ context.Context, token string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.APIToken != nil && *u.APIToken == token })
}

func (s *MemoryStore) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *MemoryStore) SetToken(_ context.Context, userID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	for id, other := range s.users {
		if id != userID && other.APIToken != nil && *other.APIToken == token {
			return models.ErrTokenCollision
		}
	}
	u.APIToken = &token
	return nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, userID int64, pseudo, uuid *string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	if pseudo != nil {
		v := *pseudo
		u.PseudoMC = &v
	}
	if uuid != nil {
		v := *uuid
		u.UUIDMC = &v
	}
	return copyUser(u), nil
}

func (s *MemoryStore) ListItems(_ context.Context) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *MemoryStore) GetItem(_ context.Context, id int64) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[id]
	if !ok {
		return nil, models.ErrItemNotFound
	}
	return &it, nil
}

func (s *MemoryStore) ImportItems(_ context.Context, items []models.Item) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make(map[string]bool, len(s.items))
	for _, it := range s.items {
		names[it.Name] = true
	}

	inserted := 0
	for _, it := range items {
		if names[it.Name] {
			continue
		}
		s.nextItemID++
		it.ID = s.nextItemID
		s.items[it.ID] = it
		names[it.Name] = true
		inserted++
	}
	return inserted, nil
}

func (s *MemoryStore) PurchaseItem(_ context.Context, userID int64, item models.Item, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, models.ErrUserNotFound
	}
	if _, ok := s.items[item.ID]; !ok {
		return 0, models.ErrItemNotFound
	}
	if u.Credits < item.Price {
		return 0, &models.InsufficientFundsError{Required: item.Price, Available: u.Credits}
	}

	u.Credits -= item.Price
	s.nextInventoryID++
	s.inventory = append(s.inventory, models.InventoryEntry{
		ID:          s.nextInventoryID,
		UserID:      userID,
		Item:        s.items[item.ID],
		Quantity:    1,
		PurchasedAt: at,
	})
	return u.Credits, nil
}

func (s *MemoryStore) ListInventory(_ context.Context, userID int64) ([]models.InventoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []models.InventoryEntry{}
	for _, e := range s.inventory {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *MemoryStore) CreateFaction(_ context.Context, f models.Faction, cost int) (*models.Faction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	leader, ok := s.users[f.LeaderID]
	if !ok {
		return nil, 0, models.ErrUserNotFound
	}
	if leader.FactionID != nil {
		return nil, 0, models.ErrAlreadyInFaction
	}
	if leader.Credits < cost {
		return nil, 0, &models.InsufficientFundsError{Required: cost, Available: leader.Credits}
	}
	for _, existing := range s.factions {
		if existing.Name == f.Name {
			return nil, 0, models.ErrFactionNameTaken
		}
	}

	s.nextFactionID++
	f.ID = s.nextFactionID
	s.factions[f.ID] = f

	id := f.ID
	leader.Credits -= cost
	leader.FactionID = &id
	return &f, leader.Credits, nil
}

func (s *MemoryStore) GetFaction(_ context.Context, id int64) (*models.Faction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.factions[id]
	if !ok {
		return nil, models.ErrFactionNotFound
	}
	return &f, nil
}

func (s *MemoryStore) ListFactions(_ context.Context) ([]models.FactionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[int64]int)
	for _, u := range s.users {
		if u.FactionID != nil {
			counts[*u.FactionID]++
		}
	}

	out := make([]models.FactionSummary, 0, len(s.factions))
	for _, f := range s.factions {
		var leader *string
		if u, ok := s.users[f.LeaderID]; ok {
			leader = u.PseudoMC
		}
		out = append(out, models.FactionSummary{Faction: f, Leader: leader, Members: counts[f.ID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) JoinFaction(_ context.Context, userID, factionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	if u.FactionID != nil {
		return models.ErrAlreadyInFaction
	}
	if _, ok := s.factions[factionID]; !ok {
		return models.ErrFactionNotFound
	}
	id := factionID
	u.FactionID = &id
	return nil
}

func (s *MemoryStore) DissolveFaction(_ context.Context, factionID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.factions[factionID]; !ok {
		return 0, models.ErrFactionNotFound
	}
	detached := 0
	for _, u := range s.users {
		if u.FactionID != nil && *u.FactionID == factionID {
			u.FactionID = nil
			detached++
		}
	}
	delete(s.factions, factionID)
	return detached, nil
}

// Package store holds the persistence backends: the relational store
// (Postgres or in-memory), the Redis catalog cache, the MongoDB journal and
// the MinIO catalog source.
package store

import (
	"context"
	"time"

	"github.com/craftrealm/realm-api/internal/models"
)

// Store is the full relational surface used by the services. Each service
// declares the subset it needs; both PostgresStore and MemoryStore
// implement all of it.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByToken(ctx context.Context, token string) (*models.User, error)
	SetToken(ctx context.Context, userID int64, token string) error
	UpdateProfile(ctx context.Context, userID int64, pseudo, uuid *string) (*models.User, error)

	ListItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	ImportItems(ctx context.Context, items []models.Item) (int, error)

	PurchaseItem(ctx context.Context, userID int64, item models.Item, at time.Time) (int, error)
	ListInventory(ctx context.Context, userID int64) ([]models.InventoryEntry, error)

	CreateFaction(ctx context.Context, f models.Faction, cost int) (*models.Faction, int, error)
	GetFaction(ctx context.Context, id int64) (*models.Faction, error)
	ListFactions(ctx context.Context) ([]models.FactionSummary, error)
	JoinFaction(ctx context.Context, userID, factionID int64) error
	DissolveFaction(ctx context.Context, factionID int64) (int, error)
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

package models

import "time"

// TimeLayout is the timestamp format used on the wire.
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Item is an immutable catalog row.
type Item struct {
	ID          int64   `json:"id"          db:"id"`
	Name        string  `json:"nom"         db:"name"`
	Description *string `json:"description" db:"description"`
	Price       int     `json:"prix"        db:"price"`
	Rarity      string  `json:"rarete"      db:"rarity"`
}

// InventoryEntry is one purchased item instance owned by a user.
type InventoryEntry struct {
	ID          int64
	UserID      int64
	Item        Item
	Quantity    int
	PurchasedAt time.Time
}

// Receipt is the response body of a successful purchase.
type Receipt struct {
	Message          string `json:"message"`
	Item             string `json:"item"`
	RemainingCredits int    `json:"credits_restants"`
}

// InventoryItem is the item view nested in an inventory line.
type InventoryItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nom"`
	Description *string `json:"description"`
	Rarity      string  `json:"rarete"`
}

// InventoryLine is one entry of GET /api/shop/inventory.
type InventoryLine struct {
	Item        InventoryItem `json:"item"`
	Quantity    int           `json:"quantite"`
	PurchasedAt string        `json:"dateAchat"`
}

// Inventory is the response body of GET /api/shop/inventory.
type Inventory struct {
	Credits int             `json:"credits"`
	Lines   []InventoryLine `json:"inventaire"`
}

// NewInventory builds the inventory view for a balance and its entries.
func NewInventory(credits int, entries []InventoryEntry) Inventory {
	lines := make([]InventoryLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, InventoryLine{
			Item: InventoryItem{
				ID:          e.Item.ID,
				Name:        e.Item.Name,
				Description: e.Item.Description,
				Rarity:      e.Item.Rarity,
			},
			Quantity:    e.Quantity,
			PurchasedAt: FormatTime(e.PurchasedAt),
		})
	}
	return Inventory{Credits: credits, Lines: lines}
}

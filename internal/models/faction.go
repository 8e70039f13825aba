package models

import "time"

// FactionCost is the credit price of founding a faction.
const FactionCost = 1000

// Faction represents a row in the factions table. Membership is not stored
// here: a user belongs to the faction its FactionID points at.
type Faction struct {
	ID          int64
	Name        string
	Description *string
	Power       int
	LeaderID    int64
	CreatedAt   time.Time
}

// FactionSummary is a faction with its leader's display name and a member
// count computed at read time.
type FactionSummary struct {
	Faction
	Leader  *string
	Members int
}

// CreateFactionRequest is the JSON body for POST /api/faction.
type CreateFactionRequest struct {
	Name        *string `json:"nom"`
	Description *string `json:"description"`
}

// FactionView is the faction object returned on creation.
type FactionView struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nom"`
	Description *string `json:"description"`
	Power       int     `json:"power"`
	Leader      *string `json:"chef"`
}

// FactionCreated is the response body of POST /api/faction.
type FactionCreated struct {
	Message          string      `json:"message"`
	Faction          FactionView `json:"faction"`
	RemainingCredits int         `json:"credits_restants"`
}

// FactionListing is one element of GET /api/factions.
type FactionListing struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nom"`
	Description *string `json:"description"`
	Power       int     `json:"power"`
	Leader      *string `json:"chef"`
	Members     int     `json:"membres"`
	CreatedAt   string  `json:"dateCreation"`
}

// NewFactionListing builds the list view of s.
func NewFactionListing(s FactionSummary) FactionListing {
	return FactionListing{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Power:       s.Power,
		Leader:      s.Leader,
		Members:     s.Members,
		CreatedAt:   FormatTime(s.CreatedAt),
	}
}

// JoinedFaction is the faction object returned by join.
type JoinedFaction struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nom"`
	Description *string `json:"description"`
}

package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is a capability tag carried by a user.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// SignupBonus is the credit balance given to every new account.
const SignupBonus = 1000

// User represents a row in the users table.
type User struct {
	ID           int64
	Email        string
	Password     string
	Roles        []Role
	PseudoMC     *string
	UUIDMC       *string
	Credits      int
	RegisteredAt time.Time
	APIToken     *string
	FactionID    *int64
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(r Role) bool {
	return slices.Contains(u.Roles, r)
}

// IsAdmin reports whether the user may administer any faction.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// CanonicalMinecraftUUID parses s, with or without hyphens, and returns the
// lowercase hyphenated form.
func CanonicalMinecraftUUID(s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", Invalid("UUID Minecraft invalide")
	}
	return id.String(), nil
}

// RegisterRequest is the JSON body for POST /api/register.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	PseudoMC *string `json:"pseudoMinecraft"`
	UUIDMC   *string `json:"uuidMinecraft"`
}

// LoginRequest is the JSON body for POST /api/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the JSON body for PUT /api/me. Nil fields are
// left untouched.
type UpdateProfileRequest struct {
	PseudoMC *string `json:"pseudoMinecraft"`
	UUIDMC   *string `json:"uuidMinecraft"`
}

// UserSummary is the short user view returned by register and login.
type UserSummary struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	PseudoMC *string `json:"pseudoMinecraft"`
	Credits  int     `json:"credits"`
}

// NewUserSummary builds the short view of u.
func NewUserSummary(u *User) UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, PseudoMC: u.PseudoMC, Credits: u.Credits}
}

// UpdatedUser is the user view returned by PUT /api/me.
type UpdatedUser struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	PseudoMC *string `json:"pseudoMinecraft"`
	UUIDMC   *string `json:"uuidMinecraft"`
	Credits  int     `json:"credits"`
}

// Profile is the full view returned by GET /api/me.
type Profile struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	PseudoMC     *string `json:"pseudoMinecraft"`
	UUIDMC       *string `json:"uuidMinecraft"`
	Credits      int     `json:"credits"`
	RegisteredAt string  `json:"dateInscription"`
	Roles        []Role  `json:"roles"`
	FactionID    *int64  `json:"faction"`
}

// NewProfile builds the profile view of u.
func NewProfile(u *User) Profile {
	roles := u.Roles
	if roles == nil {
		roles = []Role{}
	}
	return Profile{
		ID:           u.ID,
		Email:        u.Email,
		PseudoMC:     u.PseudoMC,
		UUIDMC:       u.UUIDMC,
		Credits:      u.Credits,
		RegisteredAt: FormatTime(u.RegisteredAt),
		Roles:        roles,
		FactionID:    u.FactionID,
	}
}

package models

import "time"

// UserRole enumerates the roles recognised by the authorization layer.
type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)

func (r UserRole) Valid() bool {
	switch r {
	case RolePlayer, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account. Deleted users are anonymized in
// place (name, email and password overwritten) so historical matches keep
// valid references.
type User struct {
	ID           int       `json:"id" db:"id"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         UserRole  `json:"role" db:"role"`
	Rating       int       `json:"rating" db:"rating"`
	Deleted      bool      `json:"deleted,omitempty" db:"deleted"`
	AvatarKey    *string   `json:"-" db:"avatar_key"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

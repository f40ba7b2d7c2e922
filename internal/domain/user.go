package domain

import (
	"strings"
	"time"
)

type User struct {
	ID            UserID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Email         string    `gorm:"type:text;not null;uniqueIndex:ux_users_email" db:"email" json:"email"`
	FirstName     string    `gorm:"type:text;not null" db:"first_name" json:"firstname"`
	LastName      string    `gorm:"type:text;not null" db:"last_name" json:"lastname"`
	Enabled       bool      `gorm:"not null;default:false" db:"enabled" json:"enabled"`
	AccountLocked bool      `gorm:"not null;default:false" db:"account_locked" json:"accountLocked"`
	Roles         []Role    `gorm:"many2many:user_roles" json:"roles,omitempty"`
	CreatedAt     time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// FullName joins first and last name the way activation emails and access
// tokens display the account holder.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Subject and DisplayName let a User satisfy service.Identity.
func (u *User) Subject() string     { return u.Email }
func (u *User) DisplayName() string { return u.FullName() }

func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// NormalizeEmail is applied before every write and lookup keyed by email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

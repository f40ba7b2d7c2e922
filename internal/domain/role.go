package domain

import "time"

// RoleUser is the baseline role every registered account receives.
const RoleUser = "USER"

type Role struct {
	ID        RoleID    `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex:ux_roles_name" db:"name" json:"name"`
	CreatedAt time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (Role) TableName() string { return "roles" }

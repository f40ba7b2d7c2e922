package domain

import "time"

// ActivationToken is a one-time numeric code proving control of the
// registered email. A nil ValidatedAt means the code has not been consumed.
type ActivationToken struct {
	ID          TokenID    `gorm:"type:uuid;primaryKey" db:"id"`
	Token       string     `gorm:"type:text;not null;uniqueIndex:ux_activation_tokens_token" db:"token"`
	UserID      UserID     `gorm:"type:uuid;not null;index" db:"user_id"`
	User        *User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt   time.Time  `gorm:"not null" db:"created_at"`
	ExpiresAt   time.Time  `gorm:"not null" db:"expires_at"`
	ValidatedAt *time.Time `db:"validated_at"`
}

func (ActivationToken) TableName() string { return "activation_tokens" }

// Expired reports whether now is at or past the expiry instant.
func (t *ActivationToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *ActivationToken) Consumed() bool { return t.ValidatedAt != nil }

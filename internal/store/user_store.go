package store

import (
	"context"
	"time"

	"userauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserStore struct{ db *gorm.DB }

func (s *Store) Users() *UserStore { return &UserStore{db: s.DB} }

// Create inserts the user and links the roles it carries. Roles must already exist.
func (u *UserStore) Create(ctx context.Context, usr *domain.User) error {
	if usr.ID == uuid.Nil {
		usr.ID = uuid.New()
	}
	usr.Email = domain.NormalizeEmail(usr.Email)
	return translate(u.db.WithContext(ctx).Omit("Roles.*").Create(usr).Error)
}

func (u *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).Preload("Roles").First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (u *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := u.db.WithContext(ctx).Preload("Roles").First(&user, "email = ?", domain.NormalizeEmail(email)).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Save writes every column of an existing user. Role links are left alone.
func (u *UserStore) Save(ctx context.Context, usr *domain.User) error {
	usr.UpdatedAt = time.Now().UTC()
	return translate(u.db.WithContext(ctx).Omit(clause.Associations).Save(usr).Error)
}

func (u *UserStore) SetLocked(ctx context.Context, userID uuid.UUID, locked bool) error {
	return translate(u.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{"account_locked": locked, "updated_at": time.Now().UTC()}).Error)
}

package store

import (
	"context"
	"errors"
	"time"

	"userauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleStore struct{ db *gorm.DB }

func (s *Store) Roles() *RoleStore { return &RoleStore{db: s.DB} }

func (r *RoleStore) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	var role domain.Role
	if err := r.db.WithContext(ctx).First(&role, "name = ?", name).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

// Ensure makes sure a role named name exists and returns it. Two processes
// racing on the insert both succeed: the loser's unique violation is treated
// as "already there" and the winner's row is read back.
func (r *RoleStore) Ensure(ctx context.Context, name string) (role *domain.Role, created bool, err error) {
	existing, err := r.GetByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, false, err
	}

	role = &domain.Role{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		if !IsUniqueViolation(err) {
			return nil, false, translate(err)
		}
		existing, err := r.GetByName(ctx, name)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return role, true, nil
}

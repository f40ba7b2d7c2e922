package store

import (
	"context"
	"time"

	"userauth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivationTokenStore struct{ db *gorm.DB }

func (s *Store) ActivationTokens() *ActivationTokenStore { return &ActivationTokenStore{db: s.DB} }

// Create inserts the token under a savepoint when called inside a transaction,
// so a unique violation on the code leaves the outer transaction usable.
func (a *ActivationTokenStore) Create(ctx context.Context, t *domain.ActivationToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return translate(a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit("User").Create(t).Error
	}))
}

// GetByToken loads the token with its owning user.
func (a *ActivationTokenStore) GetByToken(ctx context.Context, token string) (*domain.ActivationToken, error) {
	var out domain.ActivationToken
	if err := a.db.WithContext(ctx).Preload("User").First(&out, "token = ?", token).Error; err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// MarkValidated stamps validated_at on an unconsumed token. It reports false
// when the row was already consumed, so two concurrent activations of the same
// code cannot both succeed.
func (a *ActivationTokenStore) MarkValidated(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := a.db.WithContext(ctx).
		Model(&domain.ActivationToken{}).
		Where("id = ? AND validated_at IS NULL", id).
		Update("validated_at", at)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (a *ActivationTokenStore) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.ActivationToken, error) {
	var out []*domain.ActivationToken
	if err := a.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

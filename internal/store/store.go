package store

import (
	"context"

	"userauth/internal/domain"

	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

// WithTx runs fn inside a database transaction. Every write made through the
// *Store handed to fn commits together or not at all.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// AutoMigrate builds the schema from the models. Postgres deployments use the
// goose migrations in Migrate instead; this is for sqlite-backed tests and
// throwaway environments.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Role{},
		&domain.User{},
		&domain.PasswordCredential{},
		&domain.ActivationToken{},
	)
}

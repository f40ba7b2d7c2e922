package impl

import (
	"context"
	"errors"
	"time"

	"userauth/internal/domain"
	"userauth/internal/store"

	"github.com/google/uuid"
)

// dataStore is the slice of persistence the service layer depends on. Reads
// through the embedded storeTx run outside any transaction.
type dataStore interface {
	storeTx
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
}

type storeTx interface {
	Users() userStore
	Credentials() credentialStore
	Roles() roleStore
	ActivationTokens() activationTokenStore
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Save(ctx context.Context, usr *domain.User) error
}

type credentialStore interface {
	UpsertPassword(ctx context.Context, c *domain.PasswordCredential) error
	GetPasswordByUserID(ctx context.Context, userID uuid.UUID) (*domain.PasswordCredential, error)
}

type roleStore interface {
	GetByName(ctx context.Context, name string) (*domain.Role, error)
}

type activationTokenStore interface {
	Create(ctx context.Context, t *domain.ActivationToken) error
	GetByToken(ctx context.Context, token string) (*domain.ActivationToken, error)
	MarkValidated(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type gormStoreAdapter struct {
	store *store.Store
}

func newGormStoreAdapter(st *store.Store) gormStoreAdapter { return gormStoreAdapter{store: st} }

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormStoreAdapter{store: tx})
	})
}

func (g gormStoreAdapter) Users() userStore             { return g.store.Users() }
func (g gormStoreAdapter) Credentials() credentialStore { return g.store.Credentials() }
func (g gormStoreAdapter) Roles() roleStore             { return g.store.Roles() }

func (g gormStoreAdapter) ActivationTokens() activationTokenStore {
	return g.store.ActivationTokens()
}

package impl

import (
	"context"
	"errors"
	"time"

	"userauth/internal/domain"
	"userauth/internal/service"
	"userauth/internal/store"
)

// CredentialVerifierImpl matches an email/password pair against the stored
// argon2id credential and the account status flags. Locked and disabled
// accounts are rejected before the password is checked.
type CredentialVerifierImpl struct {
	Store           dataStore
	PasswordService service.PasswordService
}

func NewCredentialVerifier(st *store.Store, ps service.PasswordService) *CredentialVerifierImpl {
	return &CredentialVerifierImpl{Store: newGormStoreAdapter(st), PasswordService: ps}
}

func (v *CredentialVerifierImpl) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.ErrBadCredentials
	}

	// A transaction because a stale hashing policy triggers a credential write.
	var out *domain.User
	err := v.Store.WithTx(ctx, func(tx storeTx) error {
		user, err := tx.Users().GetByEmail(ctx, email)
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrBadCredentials
		}
		if err != nil {
			return err
		}
		if user.AccountLocked {
			return domain.ErrAccountLocked
		}
		if !user.Enabled {
			return domain.ErrAccountDisabled
		}

		cred, err := tx.Credentials().GetPasswordByUserID(ctx, user.ID)
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrBadCredentials
		}
		if err != nil {
			return err
		}

		rehashNeeded, ok := v.PasswordService.Verify(password, cred)
		if !ok {
			return domain.ErrBadCredentials
		}
		if rehashNeeded {
			hash, salt, paramsJSON, algo, ver, err := v.PasswordService.Hash(password)
			if err != nil {
				return err
			}
			cred.Algo = algo
			cred.Hash = hash
			cred.Salt = salt
			cred.ParamsJSON = paramsJSON
			cred.PasswordVer = ver
			cred.UpdatedAt = time.Now().UTC()
			if err := tx.Credentials().UpsertPassword(ctx, cred); err != nil {
				return err
			}
		}
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"userauth/internal/domain"
	"userauth/internal/dto"
	"userauth/internal/events"
	"userauth/internal/observability/metrics"
	"userauth/internal/service"
	"userauth/internal/store"

	"github.com/google/uuid"
)

const (
	DefaultCodeLength    = 6
	DefaultTokenTTL      = 15 * time.Minute
	ActivationSubject    = "Account activation"
	maxActivationInserts = 5
)

type Options struct {
	ActivationURL string
	CodeLength    int
	TokenTTL      time.Duration
}

type AuthServiceImpl struct {
	Store           dataStore
	PasswordService service.PasswordService
	Verifier        service.CredentialVerifier
	TService        service.TokenService
	Notifier        service.Notifier
	Events          events.Publisher
	Logger          *slog.Logger

	ActivationURL string
	CodeLength    int
	TokenTTL      time.Duration

	now func() time.Time
}

func NewAuthServiceImpl(
	st *store.Store,
	passwordService service.PasswordService,
	verifier service.CredentialVerifier,
	tokenService service.TokenService,
	notifier service.Notifier,
	publisher events.Publisher,
	logger *slog.Logger,
	opts Options,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:           newGormStoreAdapter(st),
		PasswordService: passwordService,
		Verifier:        verifier,
		TService:        tokenService,
		Notifier:        notifier,
		Events:          publisher,
		Logger:          logger,
		ActivationURL:   opts.ActivationURL,
		CodeLength:      opts.CodeLength,
		TokenTTL:        opts.TokenTTL,
	}
}

// Register creates a disabled account holding the baseline role, stores a
// fresh activation code for it and hands the activation email to the
// notifier. The account, credential, role link and code commit together; a
// notifier failure after commit is reported as ErrNotification and leaves
// the rows in place.
func (a *AuthServiceImpl) Register(ctx context.Context, r dto.RegisterRequest) error {
	result := "success"
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(result).Inc()
	}()

	r.Normalize()
	if r.Email == "" || r.FirstName == "" || r.LastName == "" || r.Password == "" {
		result = "invalid"
		return fmt.Errorf("%w: %w", domain.ErrValidation, ErrEmptyCredential)
	}

	// Hash before opening the transaction; argon2 is deliberately slow.
	hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
	if err != nil {
		result = "error"
		return err
	}

	var (
		user  *domain.User
		token *domain.ActivationToken
	)
	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		role, err := tx.Roles().GetByName(ctx, domain.RoleUser)
		if errors.Is(err, store.ErrRecordNotFound) {
			return fmt.Errorf("%w: role %q does not exist", domain.ErrConfiguration, domain.RoleUser)
		}
		if err != nil {
			return err
		}

		now := a.clock()
		u := &domain.User{
			ID:            uuid.New(),
			Email:         domain.NormalizeEmail(r.Email),
			FirstName:     r.FirstName,
			LastName:      r.LastName,
			Enabled:       false,
			AccountLocked: false,
			Roles:         []domain.Role{*role},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return domain.ErrEmailAlreadyRegistered
			}
			return err
		}

		cred := &domain.PasswordCredential{
			ID:          uuid.New(),
			UserID:      u.ID,
			Algo:        algo,
			Hash:        hash,
			Salt:        salt,
			ParamsJSON:  paramsJSON,
			PasswordVer: ver,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Credentials().UpsertPassword(ctx, cred); err != nil {
			return err
		}

		t, err := a.newActivationToken(ctx, tx.ActivationTokens(), u.ID, now)
		if err != nil {
			return err
		}
		user, token = u, t
		return nil
	})
	if err != nil {
		result = outcome(err)
		return err
	}

	a.publish(ctx, events.UserRegistered{UserID: user.ID.String(), Email: user.Email, At: user.CreatedAt})

	if err := a.sendActivation(ctx, user, token); err != nil {
		result = "notify_failed"
		return fmt.Errorf("%w: %w", domain.ErrNotification, err)
	}
	return nil
}

// ActivateAccount consumes an activation code for the account registered
// under email. An expired code is replaced by a new one, which is emailed,
// and the call fails with ErrTokenExpired.
func (a *AuthServiceImpl) ActivateAccount(ctx context.Context, code, email string) error {
	result := "success"
	defer func() {
		metrics.AuthActivationsTotal.WithLabelValues(result).Inc()
	}()

	tok, err := a.Store.ActivationTokens().GetByToken(ctx, strings.TrimSpace(code))
	if errors.Is(err, store.ErrRecordNotFound) {
		result = "invalid_token"
		return domain.ErrInvalidToken
	}
	if err != nil {
		result = "error"
		return err
	}

	if tok.User == nil || !strings.EqualFold(tok.User.Email, strings.TrimSpace(email)) {
		result = "email_mismatch"
		return domain.ErrInvalidTokenOrEmail
	}
	// consumed wins over expired: an activated account never gets a new code
	if tok.Consumed() {
		result = "already_used"
		return domain.ErrTokenAlreadyUsed
	}

	now := a.clock()
	if tok.Expired(now) {
		result = "expired"
		return a.reissue(ctx, tok, now)
	}

	err = a.Store.WithTx(ctx, func(tx storeTx) error {
		user, err := tx.Users().GetByID(ctx, tok.UserID)
		if errors.Is(err, store.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return err
		}

		user.Enabled = true
		if err := tx.Users().Save(ctx, user); err != nil {
			return err
		}

		marked, err := tx.ActivationTokens().MarkValidated(ctx, tok.ID, now)
		if err != nil {
			return err
		}
		if !marked {
			// a concurrent activation consumed the code first
			return domain.ErrTokenAlreadyUsed
		}
		return nil
	})
	if err != nil {
		result = outcome(err)
		return err
	}

	a.publish(ctx, events.AccountActivated{
		UserID:  tok.UserID.String(),
		Email:   tok.User.Email,
		TokenID: tok.ID.String(),
		At:      now,
	})
	return nil
}

// Authenticate verifies the credentials and signs an access token whose
// fullName claim carries the account holder's display name.
func (a *AuthServiceImpl) Authenticate(ctx context.Context, r dto.AuthenticationRequest) (*dto.AuthenticationResponse, error) {
	result := "success"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()

	r.Normalize()
	user, err := a.Verifier.Verify(ctx, r.Email, r.Password)
	if err != nil {
		result = outcome(err)
		return nil, err
	}

	var id service.Identity = user
	claims := map[string]any{
		"fullName": id.DisplayName(),
		"email":    user.Email,
		"roles":    user.RoleNames(),
	}
	resp, err := a.TService.Issue(ctx, id, claims)
	if err != nil {
		result = "error"
		return nil, err
	}
	return resp, nil
}

// reissue persists a replacement code for the owner of an expired one and
// emails it. The expired token and the account are left untouched.
func (a *AuthServiceImpl) reissue(ctx context.Context, expired *domain.ActivationToken, now time.Time) error {
	fresh, err := a.newActivationToken(ctx, a.Store.ActivationTokens(), expired.UserID, now)
	if err != nil {
		return fmt.Errorf("reissue activation token: %w", err)
	}

	a.publish(ctx, events.ActivationReissued{
		UserID:         expired.UserID.String(),
		Email:          expired.User.Email,
		ExpiredTokenID: expired.ID.String(),
		NewTokenID:     fresh.ID.String(),
		At:             now,
	})

	if err := a.sendActivation(ctx, expired.User, fresh); err != nil {
		return errors.Join(domain.ErrTokenExpired, fmt.Errorf("%w: %w", domain.ErrNotification, err))
	}
	return domain.ErrTokenExpired
}

// newActivationToken stores a fresh code for userID. The code column is
// unique, so a collision is retried with a new code instead of probing first.
func (a *AuthServiceImpl) newActivationToken(ctx context.Context, tokens activationTokenStore, userID uuid.UUID, now time.Time) (*domain.ActivationToken, error) {
	for attempt := 1; ; attempt++ {
		code, err := GenerateActivationCode(a.codeLength())
		if err != nil {
			metrics.TokensIssuedTotal.WithLabelValues("activation", "error").Inc()
			return nil, err
		}
		t := &domain.ActivationToken{
			ID:        uuid.New(),
			Token:     code,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(a.tokenTTL()),
		}
		err = tokens.Create(ctx, t)
		if err == nil {
			metrics.TokensIssuedTotal.WithLabelValues("activation", "success").Inc()
			return t, nil
		}
		if !errors.Is(err, store.ErrDuplicate) || attempt >= maxActivationInserts {
			metrics.TokensIssuedTotal.WithLabelValues("activation", "error").Inc()
			return nil, err
		}
		a.logger().DebugContext(ctx, "activation code collision, retrying", "attempt", attempt)
	}
}

func (a *AuthServiceImpl) sendActivation(ctx context.Context, user *domain.User, token *domain.ActivationToken) error {
	var id service.Identity = user
	return a.Notifier.SendActivation(ctx, service.ActivationMessage{
		To:                user.Email,
		DisplayName:       id.DisplayName(),
		Code:              token.Token,
		ActivationBaseURL: a.ActivationURL,
		Subject:           ActivationSubject,
	})
}

func (a *AuthServiceImpl) publish(ctx context.Context, event any) {
	if a.Events != nil {
		a.Events.Publish(ctx, event)
	}
}

func (a *AuthServiceImpl) clock() time.Time {
	if a.now != nil {
		return a.now().UTC()
	}
	return time.Now().UTC()
}

func (a *AuthServiceImpl) codeLength() int {
	if a.CodeLength > 0 {
		return a.CodeLength
	}
	return DefaultCodeLength
}

func (a *AuthServiceImpl) tokenTTL() time.Duration {
	if a.TokenTTL > 0 {
		return a.TokenTTL
	}
	return DefaultTokenTTL
}

func (a *AuthServiceImpl) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// outcome turns an error into a low-cardinality metrics label.
func outcome(err error) string {
	be, ok := domain.AsBusinessError(err)
	if !ok {
		return "error"
	}
	switch be {
	case domain.ErrBadCredentials:
		return "bad_credentials"
	case domain.ErrAccountLocked:
		return "locked"
	case domain.ErrAccountDisabled:
		return "disabled"
	case domain.ErrEmailAlreadyRegistered:
		return "duplicate"
	case domain.ErrConfiguration:
		return "misconfigured"
	case domain.ErrTokenAlreadyUsed:
		return "already_used"
	case domain.ErrUserNotFound:
		return "user_not_found"
	default:
		return "error"
	}
}

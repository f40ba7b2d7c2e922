package impl

import (
	"context"
	"sync"
	"time"

	"userauth/internal/domain"
	"userauth/internal/service"
	"userauth/internal/store"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*domain.User
	emailIndex  map[string]uuid.UUID
	credentials map[uuid.UUID]*domain.PasswordCredential
	roles       map[string]*domain.Role
	tokens      map[uuid.UUID]*domain.ActivationToken
	codeIndex   map[string]uuid.UUID

	// tokenCreateHook runs before a token insert; a non-nil error aborts it.
	tokenCreateHook func(t *domain.ActivationToken) error
	// beforeMark runs inside MarkValidated, before the consumed check.
	beforeMark func(m *memoryStore, id uuid.UUID)
}

type storeSnapshot struct {
	users       map[uuid.UUID]*domain.User
	emailIndex  map[string]uuid.UUID
	credentials map[uuid.UUID]*domain.PasswordCredential
	roles       map[string]*domain.Role
	tokens      map[uuid.UUID]*domain.ActivationToken
	codeIndex   map[string]uuid.UUID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       make(map[uuid.UUID]*domain.User),
		emailIndex:  make(map[string]uuid.UUID),
		credentials: make(map[uuid.UUID]*domain.PasswordCredential),
		roles:       make(map[string]*domain.Role),
		tokens:      make(map[uuid.UUID]*domain.ActivationToken),
		codeIndex:   make(map[string]uuid.UUID),
	}
}

func newMemoryStoreWithRole() *memoryStore {
	m := newMemoryStore()
	m.roles[domain.RoleUser] = &domain.Role{ID: uuid.New(), Name: domain.RoleUser, CreatedAt: time.Now().UTC()}
	return m
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&memoryTx{store: m, inTx: true}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

func (m *memoryStore) Users() userStore             { return (&memoryTx{store: m}).Users() }
func (m *memoryStore) Credentials() credentialStore { return (&memoryTx{store: m}).Credentials() }
func (m *memoryStore) Roles() roleStore             { return (&memoryTx{store: m}).Roles() }

func (m *memoryStore) ActivationTokens() activationTokenStore {
	return (&memoryTx{store: m}).ActivationTokens()
}

func (m *memoryStore) snapshot() storeSnapshot {
	s := storeSnapshot{
		users:       make(map[uuid.UUID]*domain.User, len(m.users)),
		emailIndex:  make(map[string]uuid.UUID, len(m.emailIndex)),
		credentials: make(map[uuid.UUID]*domain.PasswordCredential, len(m.credentials)),
		roles:       make(map[string]*domain.Role, len(m.roles)),
		tokens:      make(map[uuid.UUID]*domain.ActivationToken, len(m.tokens)),
		codeIndex:   make(map[string]uuid.UUID, len(m.codeIndex)),
	}
	for id, user := range m.users {
		copy := *user
		s.users[id] = &copy
	}
	for k, v := range m.emailIndex {
		s.emailIndex[k] = v
	}
	for id, cred := range m.credentials {
		copy := *cred
		s.credentials[id] = &copy
	}
	for k, v := range m.roles {
		s.roles[k] = v
	}
	for id, tok := range m.tokens {
		copy := *tok
		s.tokens[id] = &copy
	}
	for k, v := range m.codeIndex {
		s.codeIndex[k] = v
	}
	return s
}

func (m *memoryStore) restore(s storeSnapshot) {
	m.users = s.users
	m.emailIndex = s.emailIndex
	m.credentials = s.credentials
	m.roles = s.roles
	m.tokens = s.tokens
	m.codeIndex = s.codeIndex
}

func (m *memoryStore) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memoryStore) userByEmail(email string) (*domain.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.emailIndex[domain.NormalizeEmail(email)]
	if !ok {
		return nil, false
	}
	user := *m.users[id]
	return &user, true
}

func (m *memoryStore) credentialByUserID(userID uuid.UUID) (*domain.PasswordCredential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cred, ok := m.credentials[userID]
	if !ok {
		return nil, false
	}
	copy := *cred
	return &copy, true
}

func (m *memoryStore) tokensFor(userID uuid.UUID) []domain.ActivationToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ActivationToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out
}

func (m *memoryStore) tokenByID(id uuid.UUID) domain.ActivationToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.tokens[id]
}

func (m *memoryStore) counts() (users, tokens, creds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), len(m.tokens), len(m.credentials)
}

// seedUser stores an account with a password credential and returns it.
func (m *memoryStore) seedUser(email string, enabled, locked bool) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	u := &domain.User{
		ID:            uuid.New(),
		Email:         domain.NormalizeEmail(email),
		FirstName:     "Ann",
		LastName:      "Lee",
		Enabled:       enabled,
		AccountLocked: locked,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.users[u.ID] = u
	m.emailIndex[u.Email] = u.ID
	m.credentials[u.ID] = &domain.PasswordCredential{
		ID:          uuid.New(),
		UserID:      u.ID,
		Algo:        "argon2id",
		Hash:        []byte("stored-hash"),
		Salt:        []byte("stored-salt"),
		ParamsJSON:  []byte("stored-params"),
		PasswordVer: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	copy := *u
	return &copy
}

func (m *memoryStore) seedToken(userID uuid.UUID, code string, createdAt time.Time, ttl time.Duration) domain.ActivationToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &domain.ActivationToken{
		ID:        uuid.New(),
		Token:     code,
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}
	m.tokens[t.ID] = t
	m.codeIndex[code] = t.ID
	return *t
}

type memoryTx struct {
	store *memoryStore
	inTx  bool
}

func (m *memoryTx) Users() userStore             { return &memoryUserStore{m} }
func (m *memoryTx) Credentials() credentialStore { return &memoryCredentialStore{m} }
func (m *memoryTx) Roles() roleStore             { return &memoryRoleStore{m} }

func (m *memoryTx) ActivationTokens() activationTokenStore { return &memoryTokenStore{m} }

type memoryUserStore struct{ tx *memoryTx }

func (u *memoryUserStore) Create(ctx context.Context, usr *domain.User) error {
	s := u.tx.store
	defer s.lock(u.tx.inTx)()
	email := domain.NormalizeEmail(usr.Email)
	if _, exists := s.emailIndex[email]; exists {
		return store.ErrDuplicate
	}
	copy := *usr
	copy.Email = email
	s.users[usr.ID] = &copy
	s.emailIndex[email] = usr.ID
	return nil
}

func (u *memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s := u.tx.store
	defer s.lock(u.tx.inTx)()
	usr, ok := s.users[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *usr
	return &copy, nil
}

func (u *memoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s := u.tx.store
	defer s.lock(u.tx.inTx)()
	id, ok := s.emailIndex[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *s.users[id]
	return &copy, nil
}

func (u *memoryUserStore) Save(ctx context.Context, usr *domain.User) error {
	s := u.tx.store
	defer s.lock(u.tx.inTx)()
	if _, ok := s.users[usr.ID]; !ok {
		return store.ErrRecordNotFound
	}
	copy := *usr
	s.users[usr.ID] = &copy
	return nil
}

type memoryCredentialStore struct{ tx *memoryTx }

func (c *memoryCredentialStore) UpsertPassword(ctx context.Context, cred *domain.PasswordCredential) error {
	s := c.tx.store
	defer s.lock(c.tx.inTx)()
	copy := *cred
	s.credentials[cred.UserID] = &copy
	return nil
}

func (c *memoryCredentialStore) GetPasswordByUserID(ctx context.Context, userID uuid.UUID) (*domain.PasswordCredential, error) {
	s := c.tx.store
	defer s.lock(c.tx.inTx)()
	cred, ok := s.credentials[userID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *cred
	return &copy, nil
}

type memoryRoleStore struct{ tx *memoryTx }

func (r *memoryRoleStore) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	s := r.tx.store
	defer s.lock(r.tx.inTx)()
	role, ok := s.roles[name]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *role
	return &copy, nil
}

type memoryTokenStore struct{ tx *memoryTx }

func (t *memoryTokenStore) Create(ctx context.Context, tok *domain.ActivationToken) error {
	s := t.tx.store
	defer s.lock(t.tx.inTx)()
	if s.tokenCreateHook != nil {
		if err := s.tokenCreateHook(tok); err != nil {
			return err
		}
	}
	if _, exists := s.codeIndex[tok.Token]; exists {
		return store.ErrDuplicate
	}
	copy := *tok
	copy.User = nil
	s.tokens[tok.ID] = &copy
	s.codeIndex[tok.Token] = tok.ID
	return nil
}

func (t *memoryTokenStore) GetByToken(ctx context.Context, code string) (*domain.ActivationToken, error) {
	s := t.tx.store
	defer s.lock(t.tx.inTx)()
	id, ok := s.codeIndex[code]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	copy := *s.tokens[id]
	if owner, ok := s.users[copy.UserID]; ok {
		u := *owner
		copy.User = &u
	}
	return &copy, nil
}

func (t *memoryTokenStore) MarkValidated(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s := t.tx.store
	defer s.lock(t.tx.inTx)()
	if s.beforeMark != nil {
		s.beforeMark(s, id)
	}
	tok, ok := s.tokens[id]
	if !ok || tok.ValidatedAt != nil {
		return false, nil
	}
	stamp := at
	tok.ValidatedAt = &stamp
	return true, nil
}

type stubPasswordService struct {
	hashFunc   func(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error)
	verifyFunc func(password string, cred service.StoredPassword) (rehashNeeded bool, ok bool)

	hashCalls   []string
	verifyCalls []string
}

func (s *stubPasswordService) Hash(password string) (hash, salt, paramsJSON []byte, algo string, ver int, err error) {
	s.hashCalls = append(s.hashCalls, password)
	if s.hashFunc != nil {
		return s.hashFunc(password)
	}
	return []byte("hash"), []byte("salt"), []byte("params"), "argon2id", 1, nil
}

func (s *stubPasswordService) Verify(password string, cred service.StoredPassword) (rehashNeeded bool, ok bool) {
	s.verifyCalls = append(s.verifyCalls, password)
	if s.verifyFunc != nil {
		return s.verifyFunc(password, cred)
	}
	return false, false
}

type stubNotifier struct {
	mu   sync.Mutex
	err  error
	sent []service.ActivationMessage
}

func (n *stubNotifier) SendActivation(ctx context.Context, msg service.ActivationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *stubNotifier) messages() []service.ActivationMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]service.ActivationMessage(nil), n.sent...)
}

type stubSigner struct {
	subject string
	claims  map[string]any
	exp     time.Time
	err     error
}

func (s *stubSigner) Sign(sub string, claims map[string]any) (string, time.Time, error) {
	s.subject = sub
	s.claims = claims
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return "signed." + sub, s.exp, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPublisher) Publish(ctx context.Context, event any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

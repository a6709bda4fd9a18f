package auth

import (
	"context"
	"sync"
)

// memStore is an in-memory Store used by service tests.
type memStore struct {
	mu         sync.Mutex
	identities map[string]*Identity
	tokens     map[string]*AccessToken

	// error injection
	tokenCreateErr error
	tokenDeleteErr func(identityID, tokenID string) error
}

func newMemStore() *memStore {
	return &memStore{
		identities: make(map[string]*Identity),
		tokens:     make(map[string]*AccessToken),
	}
}

func (m *memStore) Identities(context.Context) IdentityStore { return (*memIdentities)(m) }
func (m *memStore) Tokens(context.Context) TokenStore        { return (*memTokens)(m) }

type memIdentities memStore

func (m *memIdentities) Create(_ context.Context, identity *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *identity
	m.identities[identity.ID] = &cp
	return nil
}

func (m *memIdentities) Find(_ context.Context, id string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity, ok := m.identities[id]; ok {
		cp := *identity
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memIdentities) FindByEmail(_ context.Context, email string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.identities {
		if identity.Email == email {
			cp := *identity
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memIdentities) Update(_ context.Context, identity *Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[identity.ID]; !ok {
		return ErrNotFound
	}
	cp := *identity
	m.identities[identity.ID] = &cp
	return nil
}

func (m *memIdentities) UpdatePassword(_ context.Context, identityID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[identityID]
	if !ok {
		return ErrNotFound
	}
	identity.PasswordHash = passwordHash
	return nil
}

type memTokens memStore

func (m *memTokens) Create(_ context.Context, tok *AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokenCreateErr != nil {
		return m.tokenCreateErr
	}
	cp := *tok
	m.tokens[tok.ID] = &cp
	return nil
}

func (m *memTokens) FindBySecretHash(_ context.Context, hash string) (*AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tok := range m.tokens {
		if tok.SecretHash == hash {
			cp := *tok
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memTokens) Delete(_ context.Context, identityID, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokenDeleteErr != nil {
		if err := m.tokenDeleteErr(identityID, tokenID); err != nil {
			return err
		}
	}
	if tok, ok := m.tokens[tokenID]; ok && tok.IdentityID == identityID {
		delete(m.tokens, tokenID)
	}
	return nil
}

func (m *memTokens) DeleteByIdentity(_ context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, tok := range m.tokens {
		if tok.IdentityID == identityID {
			delete(m.tokens, id)
		}
	}
	return nil
}

func (m *memStore) tokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"taskhive.org/internal/auth"
	"taskhive.org/internal/todo"
)

// memAuthStore is an in-memory auth.Store for handler tests.
type memAuthStore struct {
	mu         sync.Mutex
	identities map[string]*auth.Identity
	tokens     map[string]*auth.AccessToken

	// counts FindBySecretHash calls, used to observe gate idempotency
	lookups int
}

func newMemAuthStore() *memAuthStore {
	return &memAuthStore{
		identities: make(map[string]*auth.Identity),
		tokens:     make(map[string]*auth.AccessToken),
	}
}

func (m *memAuthStore) Identities(context.Context) auth.IdentityStore { return (*memIdentities)(m) }
func (m *memAuthStore) Tokens(context.Context) auth.TokenStore        { return (*memTokens)(m) }

func (m *memAuthStore) setActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity, ok := m.identities[id]; ok {
		identity.Active = active
	}
}

func (m *memAuthStore) lookupCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

type memIdentities memAuthStore

func (m *memIdentities) Create(_ context.Context, identity *auth.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *identity
	m.identities[identity.ID] = &cp
	return nil
}

func (m *memIdentities) Find(_ context.Context, id string) (*auth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity, ok := m.identities[id]; ok {
		cp := *identity
		return &cp, nil
	}
	return nil, auth.ErrNotFound
}

func (m *memIdentities) FindByEmail(_ context.Context, email string) (*auth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.identities {
		if identity.Email == email {
			cp := *identity
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memIdentities) Update(_ context.Context, identity *auth.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[identity.ID]; !ok {
		return auth.ErrNotFound
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
		return auth.ErrNotFound
	}
	identity.PasswordHash = passwordHash
	return nil
}

type memTokens memAuthStore

func (m *memTokens) Create(_ context.Context, tok *auth.AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tok
	m.tokens[tok.ID] = &cp
	return nil
}

func (m *memTokens) FindBySecretHash(_ context.Context, hash string) (*auth.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	for _, tok := range m.tokens {
		if tok.SecretHash == hash {
			cp := *tok
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memTokens) Delete(_ context.Context, identityID, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
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

// memTodoStore is an in-memory todo.Store for handler tests.
type memTodoStore struct {
	mu    sync.Mutex
	todos map[string]*todo.Todo
}

func newMemTodoStore() *memTodoStore {
	return &memTodoStore{todos: make(map[string]*todo.Todo)}
}

func (m *memTodoStore) Create(_ context.Context, t *todo.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.todos[t.ID] = &cp
	return nil
}

func (m *memTodoStore) Find(_ context.Context, id string) (*todo.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.todos[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, todo.ErrNotFound
}

func (m *memTodoStore) List(_ context.Context) ([]*todo.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*todo.Todo, 0, len(m.todos))
	for _, t := range m.todos {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memTodoStore) Update(_ context.Context, t *todo.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.todos[t.ID]; !ok {
		return todo.ErrNotFound
	}
	cp := *t
	m.todos[t.ID] = &cp
	return nil
}

func (m *memTodoStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.todos[id]; !ok {
		return todo.ErrNotFound
	}
	delete(m.todos, id)
	return nil
}

// envelope mirrors the response shape emitted by writeSuccess/writeError.
type envelope struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data"`
	RequestID string         `json:"request_id"`
}

type apiClient struct {
	baseURL   string
	client    *http.Client
	t         *testing.T
	authStore *memAuthStore
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	authStore := newMemAuthStore()
	authSvc, err := auth.NewService(authStore)
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	todoSvc, err := todo.NewService(newMemTodoStore())
	if err != nil {
		t.Fatalf("todo.NewService: %v", err)
	}

	api := New(authSvc, todoSvc, ReadyProbe{}, "test")
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL:   srv.URL,
		client:    srv.Client(),
		t:         t,
		authStore: authStore,
	}
}

func (c *apiClient) do(method, path, token string, body any) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeEnvelope(t *testing.T, r *http.Response) envelope {
	t.Helper()
	defer r.Body.Close()
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

// register creates an account and returns its id and bearer secret.
func (c *apiClient) register(email, password, role string) (string, string) {
	c.t.Helper()
	resp := c.do(http.MethodPost, "/api/register", "", map[string]any{
		"full_name": "Test User",
		"email":     email,
		"password":  password,
		"role":      role,
	})
	if resp.StatusCode != http.StatusCreated {
		c.t.Fatalf("register status: %d", resp.StatusCode)
	}
	env := decodeEnvelope(c.t, resp)
	user, _ := env.Data["user"].(map[string]any)
	tok, _ := env.Data["token"].(map[string]any)
	id, _ := user["id"].(string)
	secret, _ := tok["token"].(string)
	if id == "" || secret == "" {
		c.t.Fatalf("register payload incomplete: %+v", env.Data)
	}
	return id, secret
}

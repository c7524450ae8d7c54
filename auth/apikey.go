package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// DefaultAPIKeyHeader is the metadata key carrying an API key.
const DefaultAPIKeyHeader = "x-api-key"

// APIKey is a registered key. Only its hash is kept.
type APIKey struct {
	ID        string
	Hash      string
	Principal string
	Roles     []string
	ExpiresAt time.Time
}

// APIKeyStore looks keys up by hash. A missing key returns (nil, nil).
type APIKeyStore interface {
	Lookup(ctx context.Context, hash string) (*APIKey, error)
}

// APIKeyAuthenticator validates static API keys.
type APIKeyAuthenticator struct {
	header string
	store  APIKeyStore
	now    func() time.Time
}

// NewAPIKeyAuthenticator creates an authenticator reading header. An empty
// header uses DefaultAPIKeyHeader.
func NewAPIKeyAuthenticator(header string, store APIKeyStore) *APIKeyAuthenticator {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	return &APIKeyAuthenticator{header: header, store: store, now: time.Now}
}

// Name returns "api_key".
func (a *APIKeyAuthenticator) Name() string { return string(MethodAPIKey) }

// Supports reports whether the header is present.
func (a *APIKeyAuthenticator) Supports(req Request) bool {
	return strings.TrimSpace(req.Get(a.header)) != ""
}

// Authenticate resolves the key to an identity.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, req Request) (*Identity, error) {
	key := strings.TrimSpace(req.Get(a.header))
	if key == "" {
		return nil, ErrMissingCredentials
	}

	info, err := a.store.Lookup(ctx, HashAPIKey(key))
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrInvalidCredentials
	}

	id := &Identity{
		Principal: info.Principal,
		Roles:     info.Roles,
		Method:    MethodAPIKey,
		Claims:    map[string]any{"key_id": info.ID},
		ExpiresAt: info.ExpiresAt,
	}
	if id.Expired(a.now()) {
		return nil, ErrTokenExpired
	}
	return id, nil
}

// HashAPIKey returns the hex SHA-256 of key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// MemoryAPIKeyStore is an in-memory APIKeyStore.
type MemoryAPIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*APIKey
}

// NewMemoryAPIKeyStore creates an empty store.
func NewMemoryAPIKeyStore() *MemoryAPIKeyStore {
	return &MemoryAPIKeyStore{keys: make(map[string]*APIKey)}
}

// Lookup returns the key with the given hash, or nil.
func (s *MemoryAPIKeyStore) Lookup(_ context.Context, hash string) (*APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[hash], nil
}

// Add registers key under its Hash.
func (s *MemoryAPIKeyStore) Add(key *APIKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key.Hash] = key
}

// AddPlain registers a plaintext key for principal.
func (s *MemoryAPIKeyStore) AddPlain(id, plaintext, principal string, roles ...string) {
	s.Add(&APIKey{ID: id, Hash: HashAPIKey(plaintext), Principal: principal, Roles: roles})
}

var (
	_ Authenticator = (*APIKeyAuthenticator)(nil)
	_ APIKeyStore   = (*MemoryAPIKeyStore)(nil)
)

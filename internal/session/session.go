// Package session provides Valkey-backed editor sessions. A session holds
// the serialized editor state of one user working on one template, stored
// as JSON in Valkey with automatic TTL expiry, so any API instance can
// continue an editing session.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"propostaflow/internal/editor"
)

const (
	// DefaultTTL is how long an idle session lives in Valkey before automatic expiry.
	DefaultTTL = 2 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "editor:"

	// idLength is the byte length of the random session ID (16 bytes = 32 hex chars).
	idLength = 16
)

// Data holds the session payload stored in Valkey. TemplateID is nil for
// a template that has not been saved yet.
type Data struct {
	TemplateID *uuid.UUID   `json:"template_id,omitempty"`
	Version    int          `json:"version"`
	State      editor.State `json:"state"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	locks  keyedMutex
}

// NewStore creates a session store backed by the given Valkey client. A
// zero ttl uses DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// Create generates a new session and stores it in Valkey. Returns the
// session ID.
func (s *Store) Create(ctx context.Context, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now()
	if err := s.Save(ctx, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Get retrieves session data from Valkey. Returns nil if the session
// expired or never existed.
func (s *Store) Get(ctx context.Context, id string) (*Data, error) {
	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &data, nil
}

// Save replaces the session data in Valkey and resets the TTL.
func (s *Store) Save(ctx context.Context, id string, data *Data) error {
	data.UpdatedAt = time.Now()
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+id, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Delete removes the session from Valkey.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// Lock serializes the load, mutate, store sequence of one session within
// this process. Call the returned function to unlock.
func (s *Store) Lock(id string) func() {
	return s.locks.lock(id)
}

// keyedMutex is a set of mutexes created on demand and dropped when no
// goroutine holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

package storage

import (
	"context"
	"sync"
	"time"

	"threads-zapier/internal/models"
)

// MemoryStore is an in-memory TokenStore. Tokens are lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]models.StoredToken
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]models.StoredToken),
	}
}

// Save stores the token for the user, replacing any previous one.
func (m *MemoryStore) Save(_ context.Context, userID string, token models.TokenPayload) (*models.StoredToken, error) {
	stored := models.StoredToken{
		UserID:     userID,
		Token:      token,
		ObtainedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.tokens[userID] = stored
	m.mu.Unlock()

	return &stored, nil
}

// Get returns the stored token for the user, or (nil, nil) when absent.
func (m *MemoryStore) Get(_ context.Context, userID string) (*models.StoredToken, error) {
	m.mu.RLock()
	stored, ok := m.tokens[userID]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	return &stored, nil
}

// Delete removes the stored token for the user.
func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.tokens, userID)
	m.mu.Unlock()
	return nil
}

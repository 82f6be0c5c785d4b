package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/core/cache"
	"github.com/javatutor/session-service/internal/core/docdb"
	"github.com/javatutor/session-service/internal/pkg/encryption"
)

// Manager hands out one store per session, hydrating from the persisted slot
// on first access so a page reload resumes where it left off.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	cacheClient cache.Client
	encryptor   encryption.Encryptor
	archive     docdb.MessagesCollection
	bus         Broadcaster
	ttl         time.Duration
	logger      zerolog.Logger
}

// ManagerConfig holds the shared dependencies for all session stores.
type ManagerConfig struct {
	CacheClient cache.Client
	Encryptor   encryption.Encryptor
	Archive     docdb.MessagesCollection
	Bus         Broadcaster
	TTL         time.Duration
	Logger      zerolog.Logger
}

// NewManager creates a new store manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.CacheClient == nil {
		return nil, fmt.Errorf("cache client is required")
	}
	if cfg.Encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}

	return &Manager{
		stores:      make(map[string]*Store),
		cacheClient: cfg.CacheClient,
		encryptor:   cfg.Encryptor,
		archive:     cfg.Archive,
		bus:         cfg.Bus,
		ttl:         cfg.TTL,
		logger:      cfg.Logger,
	}, nil
}

// Get returns the store for a session, creating and hydrating it on first
// access.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	m.mu.Lock()
	store, ok := m.stores[sessionID]
	m.mu.Unlock()
	if ok {
		return store, nil
	}

	store, err := NewStore(&StoreConfig{
		SessionID:   sessionID,
		CacheClient: m.cacheClient,
		Encryptor:   m.encryptor,
		Archive:     m.archive,
		Bus:         m.bus,
		TTL:         m.ttl,
		Logger:      m.logger,
	})
	if err != nil {
		return nil, err
	}
	store.Hydrate(ctx)

	m.mu.Lock()
	// Another request may have created the store while we hydrated.
	if existing, ok := m.stores[sessionID]; ok {
		store = existing
	} else {
		m.stores[sessionID] = store
	}
	m.mu.Unlock()

	return store, nil
}

// Evict drops a session's store from memory. The persisted slot is untouched.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	delete(m.stores, sessionID)
	m.mu.Unlock()
}

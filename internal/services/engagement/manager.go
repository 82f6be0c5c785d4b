package engagement

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/domain/models"
)

// Manager hands out one tracker per session.
type Manager struct {
	mu       sync.Mutex
	trackers map[string]*Tracker

	threshold         float64
	policy            UnlockPolicy
	bus               Broadcaster
	archiver          *Archiver
	scrollDebounce    time.Duration
	interactDebounce  time.Duration
	timeBonusInterval time.Duration
	logger            zerolog.Logger
}

// ManagerConfig holds the shared dependencies for all trackers.
type ManagerConfig struct {
	Threshold         float64
	Policy            UnlockPolicy
	Bus               Broadcaster
	Archiver          *Archiver
	ScrollDebounce    time.Duration
	InteractDebounce  time.Duration
	TimeBonusInterval time.Duration
	Logger            zerolog.Logger
}

// NewManager creates a new tracker manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Threshold <= 0 {
		return nil, fmt.Errorf("threshold must be positive")
	}

	return &Manager{
		trackers:          make(map[string]*Tracker),
		threshold:         cfg.Threshold,
		policy:            cfg.Policy,
		bus:               cfg.Bus,
		archiver:          cfg.Archiver,
		scrollDebounce:    cfg.ScrollDebounce,
		interactDebounce:  cfg.InteractDebounce,
		timeBonusInterval: cfg.TimeBonusInterval,
		logger:            cfg.Logger,
	}, nil
}

// Get returns the tracker for a session, creating an idle one on first access.
func (m *Manager) Get(sessionID string, kind models.SessionKind) (*Tracker, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if tracker, ok := m.trackers[sessionID]; ok {
		return tracker, nil
	}

	tracker := NewTracker(&TrackerConfig{
		SessionID:         sessionID,
		Kind:              kind,
		Threshold:         m.threshold,
		Policy:            m.policy,
		Bus:               m.bus,
		Archiver:          m.archiver,
		ScrollDebounce:    m.scrollDebounce,
		InteractDebounce:  m.interactDebounce,
		TimeBonusInterval: m.timeBonusInterval,
		Logger:            m.logger,
	})
	m.trackers[sessionID] = tracker
	return tracker, nil
}

// Lookup returns an existing tracker without creating one. Activity recorded
// before StartTracking is ignored anyway, so callers on the hot path use this
// to avoid allocating trackers for sessions that never opted in.
func (m *Manager) Lookup(sessionID string) (*Tracker, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tracker, ok := m.trackers[sessionID]
	return tracker, ok
}

// Evict stops and removes a session's tracker.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	tracker, ok := m.trackers[sessionID]
	delete(m.trackers, sessionID)
	m.mu.Unlock()

	if ok {
		tracker.StopTracking()
	}
}

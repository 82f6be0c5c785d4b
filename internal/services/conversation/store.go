// Package conversation maintains per-model message histories for learning
// sessions, with a combined split-screen view and cache-backed persistence.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/javatutor/session-service/internal/core/cache"
	"github.com/javatutor/session-service/internal/core/docdb"
	"github.com/javatutor/session-service/internal/domain/models"
	"github.com/javatutor/session-service/internal/pkg/encryption"
)

// DefaultContextWindow is the default number of messages sent to the tutor
// backend per turn. Bounds prompt growth.
const DefaultContextWindow = 10

// conversationKeyPrefix scopes the persisted slot per session. Legacy
// (pre-rewrite) keys used an underscore suffix and are handled by the sweep.
const conversationKeyPrefix = "conversation_history:"

// Broadcaster fans state-changing events out to sibling tabs. The store only
// needs the publish half of the sync bus.
type Broadcaster interface {
	Broadcast(ctx context.Context, eventType models.SyncEventType, payload interface{})
}

// Store owns the two-bucket conversation history for one learning session.
// All mutation goes through the store; persistence and archiving are
// best-effort side effects that never fail an append.
type Store struct {
	mu     sync.Mutex
	state  *models.ConversationState
	active models.ModelTag

	cacheClient cache.Client
	encryptor   encryption.Encryptor
	archive     docdb.MessagesCollection
	bus         Broadcaster
	ttl         time.Duration
	logger      zerolog.Logger
}

// StoreConfig holds the dependencies for a conversation store.
type StoreConfig struct {
	SessionID   string
	CacheClient cache.Client
	Encryptor   encryption.Encryptor
	// Archive is optional; when set, appends are mirrored to the document DB.
	Archive docdb.MessagesCollection
	// Bus is optional; when set, appends broadcast conversation_updated.
	Bus    Broadcaster
	TTL    time.Duration
	Logger zerolog.Logger
}

// NewStore creates an empty store for the given session.
func NewStore(cfg *StoreConfig) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.SessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if cfg.CacheClient == nil {
		return nil, fmt.Errorf("cache client is required")
	}
	if cfg.Encryptor == nil {
		return nil, fmt.Errorf("encryptor is required")
	}

	return &Store{
		state:       models.NewConversationState(cfg.SessionID),
		active:      models.ModelTogether,
		cacheClient: cfg.CacheClient,
		encryptor:   cfg.Encryptor,
		archive:     cfg.Archive,
		bus:         cfg.Bus,
		ttl:         cfg.TTL,
		logger:      cfg.Logger.With().Str("component", "conversation").Str("session_id", cfg.SessionID).Logger(),
	}, nil
}

// SessionID returns the session this store belongs to.
func (s *Store) SessionID() string {
	return s.state.SessionID
}

// AppendUserMessage appends a learner message to the named model bucket.
// Blank or whitespace-only text is a no-op and returns nil without error so
// empty turns never corrupt history.
func (s *Store) AppendUserMessage(ctx context.Context, text string, model models.ModelTag) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if !model.IsValid() {
		return nil, fmt.Errorf("unknown model: %s", model)
	}

	msg := models.NewUserMessage(s.state.SessionID, text, model)

	s.mu.Lock()
	s.state.Buckets[model] = append(s.state.Buckets[model], *msg)
	s.mu.Unlock()

	s.afterAppend(ctx, msg)
	return msg, nil
}

// AppendUserMessageBoth inserts the same user message (same id, timestamp,
// text) into both buckets so each model's context window includes it. The
// combined view collapses it back to one visible entry.
func (s *Store) AppendUserMessageBoth(ctx context.Context, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	msg := models.NewUserMessage(s.state.SessionID, text, models.ModelTogether)

	s.mu.Lock()
	for _, model := range models.KnownModels {
		dup := *msg
		dup.ModelTag = model
		s.state.Buckets[model] = append(s.state.Buckets[model], dup)
	}
	s.mu.Unlock()

	s.afterAppend(ctx, msg)
	return msg, nil
}

// AppendAssistantMessage appends a tutor reply to the named model bucket.
func (s *Store) AppendAssistantMessage(ctx context.Context, text string, model models.ModelTag, meta *models.Meta) (*models.Message, error) {
	if !model.IsValid() {
		return nil, fmt.Errorf("unknown model: %s", model)
	}

	msg := models.NewAssistantMessage(s.state.SessionID, text, model, meta)

	s.mu.Lock()
	s.state.Buckets[model] = append(s.state.Buckets[model], *msg)
	s.mu.Unlock()

	s.afterAppend(ctx, msg)
	return msg, nil
}

// afterAppend runs the best-effort side effects of a successful append:
// persistence, archiving, and cross-tab broadcast. Failures are logged only.
func (s *Store) afterAppend(ctx context.Context, msg *models.Message) {
	if err := s.Persist(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist conversation history")
	}

	if s.archive != nil {
		if err := s.archive.Add(ctx, msg); err != nil {
			s.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to archive message")
		}
	}

	if s.bus != nil {
		s.bus.Broadcast(ctx, models.EventConversationUpdated, map[string]interface{}{
			"sessionId": s.state.SessionID,
			"messageId": msg.ID,
			"modelTag":  msg.ModelTag,
		})
	}
}

// CombinedView returns all messages from both buckets merged by timestamp
// ascending, with split-screen user messages deduplicated on
// (sender=user, timestamp, text). Recomputed on every call from current
// state; buckets can change between calls so the result is never cached.
func (s *Store) CombinedView() []models.Message {
	s.mu.Lock()
	merged := make([]models.Message, 0, s.state.TotalMessages())
	for _, model := range models.KnownModels {
		merged = append(merged, s.state.Buckets[model]...)
	}
	s.mu.Unlock()

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	seen := make(map[string]bool, len(merged))
	out := merged[:0]
	for _, msg := range merged {
		if msg.IsUser() {
			key := msg.Timestamp.UTC().Format(time.RFC3339Nano) + "\x00" + msg.Text
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, msg)
	}
	return out
}

// ContextWindow returns the most recent max messages for a model as
// (role, content) pairs for transmission to the tutor backend. max <= 0
// falls back to DefaultContextWindow.
func (s *Store) ContextWindow(model models.ModelTag, max int) []models.ContextEntry {
	if max <= 0 {
		max = DefaultContextWindow
	}

	s.mu.Lock()
	bucket := s.state.Buckets[model]
	if len(bucket) > max {
		bucket = bucket[len(bucket)-max:]
	}
	entries := make([]models.ContextEntry, len(bucket))
	for i := range bucket {
		entries[i] = models.ContextEntry{
			Role:    bucket[i].Role(),
			Content: bucket[i].Text,
		}
	}
	s.mu.Unlock()

	return entries
}

// SwitchActiveModel changes which bucket single-model views read from.
// Bucket contents are untouched.
func (s *Store) SwitchActiveModel(model models.ModelTag) error {
	if !model.IsValid() {
		return fmt.Errorf("unknown model: %s", model)
	}
	s.mu.Lock()
	s.active = model
	s.mu.Unlock()
	return nil
}

// ActiveModel returns the bucket currently selected for single-model views.
func (s *Store) ActiveModel() models.ModelTag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// BucketLen returns the number of messages stored for a model.
func (s *Store) BucketLen(model models.ModelTag) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.BucketLen(model)
}

// Persist serializes the two-bucket state, encrypts it, and writes it to the
// session's cache slot. Callers treat failures as loss of durability for the
// turn, not as errors in the conversation itself.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	data, err := json.Marshal(s.state)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal conversation state: %w", err)
	}

	encrypted, err := s.encryptor.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt conversation state: %w", err)
	}

	key := SlotKey(s.state.SessionID)
	if err := s.cacheClient.Set(ctx, key, []byte(encrypted), s.ttl); err != nil {
		return fmt.Errorf("failed to store conversation state: %w", err)
	}
	return nil
}

// Hydrate restores state from the session's cache slot. Missing or malformed
// data yields an empty state, never an error: a reload must always produce a
// usable conversation.
func (s *Store) Hydrate(ctx context.Context) {
	key := SlotKey(s.state.SessionID)

	encrypted, err := s.cacheClient.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read persisted conversation, starting empty")
		return
	}
	if encrypted == nil {
		return // No prior state
	}

	// Decrypt failure usually means the key changed; drop the stale slot.
	decrypted, err := s.encryptor.Decrypt(string(encrypted))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to decrypt persisted conversation, discarding")
		_, _ = s.cacheClient.Delete(ctx, key)
		return
	}

	var state models.ConversationState
	if err := json.Unmarshal(decrypted, &state); err != nil {
		s.logger.Warn().Err(err).Msg("malformed persisted conversation, discarding")
		_, _ = s.cacheClient.Delete(ctx, key)
		return
	}
	if state.Buckets == nil {
		return
	}

	state.SessionID = s.state.SessionID
	for _, model := range models.KnownModels {
		if _, ok := state.Buckets[model]; !ok {
			state.Buckets[model] = nil
		}
	}

	s.mu.Lock()
	s.state = &state
	s.mu.Unlock()
}

// SlotKey returns the cache key for a session's persisted conversation.
func SlotKey(sessionID string) string {
	return conversationKeyPrefix + sessionID
}

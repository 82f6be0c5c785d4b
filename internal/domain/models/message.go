// Package models contains domain models for the Tutor Session Service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ModelTag identifies which AI tutor backend a message belongs to.
type ModelTag string

const (
	// ModelGemini is the Gemini tutor backend.
	ModelGemini ModelTag = "gemini"
	// ModelTogether is the Together tutor backend.
	ModelTogether ModelTag = "together"
)

// KnownModels lists the closed set of tutor backends.
var KnownModels = []ModelTag{ModelTogether, ModelGemini}

// IsValid reports whether the tag names a known tutor backend.
func (m ModelTag) IsValid() bool {
	return m == ModelGemini || m == ModelTogether
}

// Sender identifies who produced a message.
type Sender string

const (
	// SenderUser marks a message typed by the learner.
	SenderUser Sender = "user"
)

// Message is a single turn in a tutoring conversation.
// The same user message may be stored once per model bucket in split-screen
// mode; identity for deduplication is (sender=user, timestamp, text).
type Message struct {
	ID        string    `json:"id" bson:"_id"`
	SessionID string    `json:"sessionId" bson:"sessionId"`
	Text      string    `json:"text" bson:"text"`
	Sender    Sender    `json:"sender" bson:"sender"`
	ModelTag  ModelTag  `json:"modelTag" bson:"modelTag"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Meta      *Meta     `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Meta carries correlation data for a remote chat turn. It feeds downstream
// feedback/rating APIs and is not part of message identity.
type Meta struct {
	CorrelationID string `json:"correlationId,omitempty" bson:"correlationId,omitempty"`
	LatencyMs     int64  `json:"latencyMs,omitempty" bson:"latencyMs,omitempty"`
	ModelName     string `json:"modelName,omitempty" bson:"modelName,omitempty"`
}

// IsUser reports whether the message was sent by the learner.
func (m *Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Role returns the role used for backend context windows: "user" for learner
// messages, "assistant" otherwise.
func (m *Message) Role() string {
	if m.IsUser() {
		return "user"
	}
	return "assistant"
}

// NewUserMessage creates a learner message bound to one model bucket.
func NewUserMessage(sessionID, text string, model ModelTag) *Message {
	return &Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Text:      text,
		Sender:    SenderUser,
		ModelTag:  model,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssistantMessage creates a tutor reply for the given model bucket.
// The sender tag equals the model so combined views can attribute replies.
func NewAssistantMessage(sessionID, text string, model ModelTag, meta *Meta) *Message {
	return &Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Text:      text,
		Sender:    Sender(model),
		ModelTag:  model,
		Timestamp: time.Now().UTC(),
		Meta:      meta,
	}
}

// ContextEntry is the minimal (role, content) pair sent to the tutor backend.
type ContextEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

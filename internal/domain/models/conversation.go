// Package models contains domain models for the Tutor Session Service.
package models

// ConversationState is the serializable two-bucket conversation history for
// one learning session. Insertion order within a bucket is chronological and
// is the order sent to the tutor backend.
type ConversationState struct {
	SessionID string                 `json:"sessionId"`
	Buckets   map[ModelTag][]Message `json:"buckets"`
}

// NewConversationState creates an empty state with both model buckets present.
func NewConversationState(sessionID string) *ConversationState {
	buckets := make(map[ModelTag][]Message, len(KnownModels))
	for _, m := range KnownModels {
		buckets[m] = nil
	}
	return &ConversationState{
		SessionID: sessionID,
		Buckets:   buckets,
	}
}

// BucketLen returns the number of messages stored for a model.
func (s *ConversationState) BucketLen(model ModelTag) int {
	return len(s.Buckets[model])
}

// TotalMessages returns the stored message count across all buckets,
// counting split-screen user messages once per bucket.
func (s *ConversationState) TotalMessages() int {
	n := 0
	for _, msgs := range s.Buckets {
		n += len(msgs)
	}
	return n
}

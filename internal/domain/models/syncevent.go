// Package models contains domain models for the Tutor Session Service.
package models

import "encoding/json"

// SyncEventType is a key from the fixed catalog of cross-tab events.
type SyncEventType string

const (
	// EventSessionUpdated signals session state changed.
	EventSessionUpdated SyncEventType = "session_updated"
	// EventSessionActivated signals a session became active.
	EventSessionActivated SyncEventType = "session_activated"
	// EventSessionDeactivated signals a session was deactivated.
	EventSessionDeactivated SyncEventType = "session_deactivated"
	// EventConversationUpdated signals new messages in a conversation.
	EventConversationUpdated SyncEventType = "conversation_updated"
	// EventMetadataUpdated signals session metadata changed.
	EventMetadataUpdated SyncEventType = "metadata_updated"
	// EventTabFocused signals a tab gained focus.
	EventTabFocused SyncEventType = "tab_focused"
	// EventTabBlurred signals a tab lost focus.
	EventTabBlurred SyncEventType = "tab_blurred"
	// EventEngagementUpdated signals the engagement score changed.
	EventEngagementUpdated SyncEventType = "engagement_updated"
	// EventThresholdReached signals the engagement threshold latch was set.
	EventThresholdReached SyncEventType = "threshold_reached"
	// EventProgressUpdated signals lesson progress advanced.
	EventProgressUpdated SyncEventType = "progress_updated"
	// EventQuizUnlocked signals a quiz follow-up was unlocked.
	EventQuizUnlocked SyncEventType = "quiz_unlocked"
	// EventPracticeUnlocked signals a practice follow-up was unlocked.
	EventPracticeUnlocked SyncEventType = "practice_unlocked"
	// EventUIStateUpdated signals shared UI state changed.
	EventUIStateUpdated SyncEventType = "ui_state_updated"
)

// SyncEnvelope is the wire format for a cross-tab broadcast. Origin names the
// publishing tab/instance so a sender never redelivers its own events.
type SyncEnvelope struct {
	Type   SyncEventType   `json:"type"`
	Data   json.RawMessage `json:"data,omitempty"`
	Origin string          `json:"origin"`
}

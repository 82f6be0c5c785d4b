// Package testutils provides test utilities and helpers.
package testutils

import (
	"time"

	"github.com/javatutor/session-service/internal/domain/models"
)

// Test constants
const (
	TestSessionID = "session-test-123"
	TestMessageID = "msg-test-456"
	TestTabID     = "tab-test-789"
)

// NewTestUserMessage creates a test user message with default values.
func NewTestUserMessage(model models.ModelTag) *models.Message {
	return &models.Message{
		ID:        TestMessageID,
		SessionID: TestSessionID,
		Text:      "How do I declare an ArrayList?",
		Sender:    models.SenderUser,
		ModelTag:  model,
		Timestamp: time.Now().UTC(),
	}
}

// NewTestAssistantMessage creates a test assistant message.
func NewTestAssistantMessage(model models.ModelTag) *models.Message {
	return &models.Message{
		ID:        TestMessageID + "-assistant",
		SessionID: TestSessionID,
		Text:      "Use new ArrayList<String>() with the diamond operator.",
		Sender:    models.Sender(model),
		ModelTag:  model,
		Timestamp: time.Now().UTC(),
	}
}

// NewTestActivityEvent creates a test activity event.
func NewTestActivityEvent(activityType models.ActivityType, points float64) models.ActivityEvent {
	return models.ActivityEvent{
		SessionID: TestSessionID,
		Type:      activityType,
		Points:    points,
		Timestamp: time.Now().UTC(),
	}
}

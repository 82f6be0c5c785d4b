// Package models_test provides unit tests for the domain models.
package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/javatutor/session-service/internal/domain/models"
)

func TestModelTag_IsValid(t *testing.T) {
	assert.True(t, models.ModelGemini.IsValid())
	assert.True(t, models.ModelTogether.IsValid())
	assert.False(t, models.ModelTag("claude").IsValid())
	assert.False(t, models.ModelTag("").IsValid())
}

func TestNewUserMessage(t *testing.T) {
	msg := models.NewUserMessage("session-1", "hello", models.ModelGemini)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "session-1", msg.SessionID)
	assert.Equal(t, models.SenderUser, msg.Sender)
	assert.Equal(t, models.ModelGemini, msg.ModelTag)
	assert.True(t, msg.IsUser())
	assert.Equal(t, "user", msg.Role())
	assert.False(t, msg.Timestamp.IsZero())
}

func TestNewAssistantMessage(t *testing.T) {
	meta := &models.Meta{CorrelationID: "corr-1", LatencyMs: 120, ModelName: "gemini-pro"}
	msg := models.NewAssistantMessage("session-1", "an answer", models.ModelGemini, meta)

	// Assistant replies are attributed to their model.
	assert.Equal(t, models.Sender(models.ModelGemini), msg.Sender)
	assert.False(t, msg.IsUser())
	assert.Equal(t, "assistant", msg.Role())
	assert.Equal(t, meta, msg.Meta)
}

func TestConversationState_Counts(t *testing.T) {
	state := models.NewConversationState("session-1")

	assert.Equal(t, 0, state.TotalMessages())

	state.Buckets[models.ModelGemini] = append(state.Buckets[models.ModelGemini],
		*models.NewUserMessage("session-1", "one", models.ModelGemini))
	state.Buckets[models.ModelTogether] = append(state.Buckets[models.ModelTogether],
		*models.NewUserMessage("session-1", "two", models.ModelTogether))

	assert.Equal(t, 1, state.BucketLen(models.ModelGemini))
	assert.Equal(t, 1, state.BucketLen(models.ModelTogether))
	assert.Equal(t, 2, state.TotalMessages())
}

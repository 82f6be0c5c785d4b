// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/javatutor/session-service/internal/domain/models"
	"github.com/javatutor/session-service/internal/services/tutor"
)

// MockTutorClient is a mock implementation of tutor.Client.
type MockTutorClient struct {
	mock.Mock
}

// SubmitChatTurn sends a conversation context to the named model.
func (m *MockTutorClient) SubmitChatTurn(ctx context.Context, model models.ModelTag, window []models.ContextEntry) (*tutor.ChatTurnResult, error) {
	args := m.Called(ctx, model, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tutor.ChatTurnResult), args.Error(1)
}

// ExecuteCode runs a code snippet in the backend sandbox.
func (m *MockTutorClient) ExecuteCode(ctx context.Context, code string) (*tutor.ExecutionResult, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tutor.ExecutionResult), args.Error(1)
}

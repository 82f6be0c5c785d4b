// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/javatutor/session-service/internal/core/docdb"
	"github.com/javatutor/session-service/internal/domain/models"
)

// MockMessagesCollection is a mock implementation of docdb.MessagesCollection.
type MockMessagesCollection struct {
	mock.Mock
}

// Add archives a message.
func (m *MockMessagesCollection) Add(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// List retrieves archived messages.
func (m *MockMessagesCollection) List(ctx context.Context, opts *docdb.ListMessagesOptions) ([]*models.Message, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

// CountBySession returns the number of archived messages for a session.
func (m *MockMessagesCollection) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// DeleteBySession removes all archived messages for a session.
func (m *MockMessagesCollection) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// EnsureIndexes creates the collection indexes.
func (m *MockMessagesCollection) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockEngagementCollection is a mock implementation of docdb.EngagementCollection.
type MockEngagementCollection struct {
	mock.Mock
}

// AddBatch archives a batch of activity events.
func (m *MockEngagementCollection) AddBatch(ctx context.Context, events []models.ActivityEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// CountBySession returns the number of archived events for a session.
func (m *MockEngagementCollection) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// EnsureIndexes creates the collection indexes.
func (m *MockEngagementCollection) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDocDBClient is a mock implementation of docdb.Client.
type MockDocDBClient struct {
	mock.Mock
	messagesCollection   *MockMessagesCollection
	engagementCollection *MockEngagementCollection
}

// NewMockDocDBClient creates a new MockDocDBClient.
func NewMockDocDBClient() *MockDocDBClient {
	return &MockDocDBClient{
		messagesCollection:   &MockMessagesCollection{},
		engagementCollection: &MockEngagementCollection{},
	}
}

// Messages returns the message archive collection.
func (m *MockDocDBClient) Messages() docdb.MessagesCollection {
	return m.messagesCollection
}

// MessagesMock returns the underlying message collection mock for expectations.
func (m *MockDocDBClient) MessagesMock() *MockMessagesCollection {
	return m.messagesCollection
}

// Engagement returns the engagement-event archive collection.
func (m *MockDocDBClient) Engagement() docdb.EngagementCollection {
	return m.engagementCollection
}

// EngagementMock returns the underlying engagement collection mock for expectations.
func (m *MockDocDBClient) EngagementMock() *MockEngagementCollection {
	return m.engagementCollection
}

// EnsureIndexes creates indexes for all collections.
func (m *MockDocDBClient) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Ping verifies the database connection.
func (m *MockDocDBClient) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close closes the database connection.
func (m *MockDocDBClient) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

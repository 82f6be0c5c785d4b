// Package docdb defines the document database interface.
package docdb

import (
	"context"

	"github.com/javatutor/session-service/internal/domain/models"
)

// SortOrder represents the sort direction.
type SortOrder string

const (
	// SortOrderAsc represents ascending order.
	SortOrderAsc SortOrder = "asc"
	// SortOrderDesc represents descending order.
	SortOrderDesc SortOrder = "desc"
)

// ListMessagesOptions contains options for listing archived messages.
type ListMessagesOptions struct {
	SessionID string
	Model     models.ModelTag
	Limit     int64
	Skip      int64
	OrderBy   SortOrder // Order by timestamp
}

// MessagesCollection defines the interface for the message archive.
type MessagesCollection interface {
	// Add archives a message. Archive failures are advisory; the in-memory
	// conversation remains authoritative for the running session.
	Add(ctx context.Context, message *models.Message) error

	// List retrieves archived messages with pagination and sorting.
	List(ctx context.Context, opts *ListMessagesOptions) ([]*models.Message, error)

	// CountBySession returns the number of archived messages for a session.
	CountBySession(ctx context.Context, sessionID string) (int64, error)

	// DeleteBySession removes all archived messages for a session.
	DeleteBySession(ctx context.Context, sessionID string) (int64, error)

	// EnsureIndexes creates the collection indexes.
	EnsureIndexes(ctx context.Context) error
}

// EngagementCollection defines the interface for the engagement-event archive.
type EngagementCollection interface {
	// AddBatch archives a batch of activity events.
	AddBatch(ctx context.Context, events []models.ActivityEvent) error

	// CountBySession returns the number of archived events for a session.
	CountBySession(ctx context.Context, sessionID string) (int64, error)

	// EnsureIndexes creates the collection indexes.
	EnsureIndexes(ctx context.Context) error
}

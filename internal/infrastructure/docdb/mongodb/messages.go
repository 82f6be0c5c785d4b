// Package mongodb provides the message archive collection implementation.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/javatutor/session-service/internal/core/docdb"
	"github.com/javatutor/session-service/internal/domain/models"
)

// MessagesCollectionName is the name of the message archive collection.
const MessagesCollectionName = "messages"

// MessagesCollection implements docdb.MessagesCollection for MongoDB.
type MessagesCollection struct {
	collection *mongo.Collection
}

// NewMessagesCollection creates a new messages collection wrapper.
func NewMessagesCollection(db *mongo.Database) *MessagesCollection {
	return &MessagesCollection{
		collection: db.Collection(MessagesCollectionName),
	}
}

// Add archives a message.
func (c *MessagesCollection) Add(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		return fmt.Errorf("message ID is required")
	}

	_, err := c.collection.InsertOne(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// List retrieves archived messages with pagination and sorting.
func (c *MessagesCollection) List(ctx context.Context, opts *docdb.ListMessagesOptions) ([]*models.Message, error) {
	filter := bson.M{}
	findOpts := options.Find()

	if opts != nil {
		if opts.SessionID != "" {
			filter["sessionId"] = opts.SessionID
		}
		if opts.Model != "" {
			filter["modelTag"] = opts.Model
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
		if opts.Skip > 0 {
			findOpts.SetSkip(opts.Skip)
		}
	}

	// Default to descending order by timestamp
	sortOrder := -1
	if opts != nil && opts.OrderBy == docdb.SortOrderAsc {
		sortOrder = 1
	}
	findOpts.SetSort(bson.D{{Key: "timestamp", Value: sortOrder}})

	cursor, err := c.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}

// CountBySession returns the number of archived messages for a session.
func (c *MessagesCollection) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	count, err := c.collection.CountDocuments(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// DeleteBySession removes all archived messages for a session.
func (c *MessagesCollection) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	result, err := c.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	return result.DeletedCount, nil
}

// EnsureIndexes creates indexes for the message archive.
func (c *MessagesCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sessionId", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_session_timestamp"),
		},
		{
			Keys: bson.D{
				{Key: "sessionId", Value: 1},
				{Key: "modelTag", Value: 1},
			},
			Options: options.Index().SetName("idx_session_model"),
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_timestamp"),
		},
	}

	if _, err := c.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create messages indexes: %w", err)
	}
	return nil
}

// Package mongodb provides the engagement-event archive implementation.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/javatutor/session-service/internal/domain/models"
)

// EngagementCollectionName is the name of the engagement-event collection.
const EngagementCollectionName = "engagement_events"

// EngagementCollection implements docdb.EngagementCollection for MongoDB.
type EngagementCollection struct {
	collection *mongo.Collection
}

// NewEngagementCollection creates a new engagement collection wrapper.
func NewEngagementCollection(db *mongo.Database) *EngagementCollection {
	return &EngagementCollection{
		collection: db.Collection(EngagementCollectionName),
	}
}

// AddBatch archives a batch of activity events.
func (c *EngagementCollection) AddBatch(ctx context.Context, events []models.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]interface{}, len(events))
	for i := range events {
		docs[i] = events[i]
	}

	if _, err := c.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert engagement events: %w", err)
	}
	return nil
}

// CountBySession returns the number of archived events for a session.
func (c *EngagementCollection) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	count, err := c.collection.CountDocuments(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return 0, fmt.Errorf("failed to count engagement events: %w", err)
	}
	return count, nil
}

// EnsureIndexes creates indexes for the engagement-event archive.
func (c *EngagementCollection) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "sessionId", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_session_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "type", Value: 1}},
			Options: options.Index().SetName("idx_type"),
		},
	}

	if _, err := c.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create engagement indexes: %w", err)
	}
	return nil
}

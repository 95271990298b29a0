package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Index names, referenced when a duplicate key error needs to be attributed.
const (
	FinalizedPerPropertyIndex = "uniq_finalized_per_property"
	ActiveInterestIndex       = "uniq_active_interest"
	ThreadKeyIndex            = "uniq_thread_key"
)

// EnsureIndexes creates the indexes the booking and notification stores rely on.
// The unique ones back invariants that are also checked in code, so a concurrent
// writer that slips past the check still gets a duplicate key error.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		InterestsCollection: {
			{
				Keys: bson.D{{Key: "property", Value: 1}},
				Options: options.Index().
					SetName(FinalizedPerPropertyIndex).
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "finalized"}),
			},
			{
				Keys: bson.D{{Key: "user", Value: 1}, {Key: "property", Value: 1}},
				Options: options.Index().
					SetName(ActiveInterestIndex).
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"is_cancelled": false}),
			},
			{Keys: bson.D{{Key: "agent", Value: 1}, {Key: "property", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		NotificationsCollection: {
			{
				Keys: bson.D{{Key: "user", Value: 1}, {Key: "agent", Value: 1}, {Key: "property", Value: 1}},
				Options: options.Index().
					SetName(ThreadKeyIndex).
					SetUnique(true),
			},
			{Keys: bson.D{{Key: "agent", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		PropertiesCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
			{Keys: bson.D{{Key: "name", Value: 1}}},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// server/internal/database/mongo.go
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"waste-collection-api-server/config"
)

// Collection names.
const (
	PickupsCollection       = "pickups"
	FacilitiesCollection    = "facilities"
	UsersCollection         = "users"
	NotificationsCollection = "notifications"
)

// Connect opens a client, pings it and returns the configured database.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(cfg.DBName), nil
}

// EnsureIndexes creates the indexes the stores rely on. CreateMany is a
// no-op for indexes that already exist with the same definition.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	specs := map[string][]mongo.IndexModel{
		PickupsCollection: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "requestedBy", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "facilityId", Value: 1}}},
			{Keys: bson.D{{Key: "geom", Value: "2dsphere"}}},
		},
		FacilitiesCollection: {
			{Keys: bson.D{{Key: "facilityId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		NotificationsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range specs {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		logger.Debug("indexes ensured", "collection", coll, "indexes", names)
	}
	return nil
}

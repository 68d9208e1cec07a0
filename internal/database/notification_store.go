// server/internal/database/notification_store.go
package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"waste-collection-api-server/internal/models"
)

// NotificationStore is the per-user notification inbox.
type NotificationStore struct {
	coll *mongo.Collection
}

func NewNotificationStore(db *mongo.Database) *NotificationStore {
	return &NotificationStore{coll: db.Collection(NotificationsCollection)}
}

func (s *NotificationStore) InsertMany(ctx context.Context, notes []models.Notification) error {
	if len(notes) == 0 {
		return nil
	}
	docs := make([]interface{}, len(notes))
	for i := range notes {
		docs[i] = notes[i]
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationStore) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int64) ([]models.Notification, error) {
	filter := bson.M{"userId": userID}
	if unreadOnly {
		filter["read"] = false
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notes []models.Notification
	if err := cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	if notes == nil {
		notes = []models.Notification{}
	}
	return notes, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationStore) MarkRead(ctx context.Context, userID, id string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

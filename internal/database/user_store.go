// server/internal/database/user_store.go
package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"waste-collection-api-server/internal/models"
)

// UserStore holds platform accounts. The notification dispatcher uses the
// role lookup to address alerts.
type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(UsersCollection)}
}

// UsersByRole returns active users holding any of roles.
func (s *UserStore) UsersByRole(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	cursor, err := s.coll.Find(ctx, bson.M{
		"role":   bson.M{"$in": roles},
		"status": bson.M{"$ne": "inactive"},
	})
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *UserStore) Get(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %s: %w", userID, err)
	}
	return &u, nil
}

// Upsert inserts u or replaces the existing user with the same userId.
// It reports whether a new document was created.
func (s *UserStore) Upsert(ctx context.Context, u models.User) (bool, error) {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"userId": u.UserID}, u, options.Replace().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert user %s: %w", u.UserID, err)
	}
	return res.UpsertedCount == 1, nil
}

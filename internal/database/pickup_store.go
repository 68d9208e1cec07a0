// server/internal/database/pickup_store.go
package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"waste-collection-api-server/internal/models"
)

const defaultListLimit = 50

// PickupStore persists pickups in mongo. Every status change goes through
// UpdateIf, a single FindOneAndUpdate whose filter carries the precondition.
type PickupStore struct {
	coll *mongo.Collection
}

func NewPickupStore(db *mongo.Database) *PickupStore {
	return &PickupStore{coll: db.Collection(PickupsCollection)}
}

func (s *PickupStore) Insert(ctx context.Context, p *models.Pickup) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert pickup: %w", err)
	}
	return nil
}

func (s *PickupStore) FindByID(ctx context.Context, id string) (*models.Pickup, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var p models.Pickup
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find pickup %s: %w", id, err)
	}
	return &p, nil
}

// UpdateIf applies upd only if the stored document satisfies cond, and
// returns the document as written. A missing document and a failed
// precondition both yield ErrNotFound.
func (s *PickupStore) UpdateIf(ctx context.Context, id string, cond Precondition, upd PickupUpdate) (*models.Pickup, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Pickup
	err = s.coll.FindOneAndUpdate(ctx, cond.filter(oid), bson.M{"$set": upd.setDoc()}, opts).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update pickup %s: %w", id, err)
	}
	return &p, nil
}

// List returns pickups matching f, newest first.
func (s *PickupStore) List(ctx context.Context, f PickupFilter) ([]models.Pickup, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Skip)

	cursor, err := s.coll.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, fmt.Errorf("query pickups: %w", err)
	}
	defer cursor.Close(ctx)

	var pickups []models.Pickup
	if err := cursor.All(ctx, &pickups); err != nil {
		return nil, fmt.Errorf("decode pickups: %w", err)
	}
	if pickups == nil {
		pickups = []models.Pickup{}
	}
	return pickups, nil
}

// OutOfRangeScores finds documents whose contaminationScore is outside [0, 1].
func (s *PickupStore) OutOfRangeScores(ctx context.Context) ([]ScoreRecord, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"contaminationScore": bson.M{"$gt": 1}},
		bson.M{"contaminationScore": bson.M{"$lt": 0}},
	}}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "contaminationScore": 1})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query legacy scores: %w", err)
	}
	defer cursor.Close(ctx)

	var out []ScoreRecord
	for cursor.Next(ctx) {
		var doc struct {
			ID    primitive.ObjectID `bson:"_id"`
			Score float64            `bson:"contaminationScore"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode legacy score: %w", err)
		}
		out = append(out, ScoreRecord{ID: doc.ID.Hex(), Score: doc.Score})
	}
	return out, cursor.Err()
}

// SetScore swaps a stored score, only if it still holds old.
func (s *PickupStore) SetScore(ctx context.Context, id string, old, repaired float64) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrNotFound
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "contaminationScore": old},
		bson.M{"$set": bson.M{"contaminationScore": repaired}},
	)
	if err != nil {
		return false, fmt.Errorf("repair score %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

// server/internal/database/facility_store.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"waste-collection-api-server/internal/models"
)

// ErrDuplicate is returned when a unique key already exists.
var ErrDuplicate = errors.New("document already exists")

// FacilityStore is the facilities collection.
type FacilityStore struct {
	coll *mongo.Collection
}

func NewFacilityStore(db *mongo.Database) *FacilityStore {
	return &FacilityStore{coll: db.Collection(FacilitiesCollection)}
}

func (s *FacilityStore) Create(ctx context.Context, f *models.Facility) error {
	count, err := s.coll.CountDocuments(ctx, bson.M{"facilityId": f.FacilityID})
	if err != nil {
		return fmt.Errorf("check facility %s: %w", f.FacilityID, err)
	}
	if count > 0 {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	if f.Status == "" {
		f.Status = models.FacilityActive
	}
	res, err := s.coll.InsertOne(ctx, f)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert facility: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		f.ID = oid
	}
	return nil
}

func (s *FacilityStore) List(ctx context.Context) ([]models.Facility, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("query facilities: %w", err)
	}
	defer cursor.Close(ctx)

	var facilities []models.Facility
	if err := cursor.All(ctx, &facilities); err != nil {
		return nil, fmt.Errorf("decode facilities: %w", err)
	}
	if facilities == nil {
		facilities = []models.Facility{}
	}
	return facilities, nil
}

func (s *FacilityStore) Get(ctx context.Context, facilityID string) (*models.Facility, error) {
	var f models.Facility
	err := s.coll.FindOne(ctx, bson.M{"facilityId": facilityID}).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find facility %s: %w", facilityID, err)
	}
	return &f, nil
}

// Exists reports whether an active facility with this id exists.
func (s *FacilityStore) Exists(ctx context.Context, facilityID string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{
		"facilityId": facilityID,
		"status":     bson.M{"$ne": models.FacilityInactive},
	})
	if err != nil {
		return false, fmt.Errorf("check facility %s: %w", facilityID, err)
	}
	return count > 0, nil
}

// FacilityChanges holds the mutable facility fields.
type FacilityChanges struct {
	Name               string
	Type               string
	Address            models.Address
	AcceptedWasteTypes []models.WasteType
	Status             string
}

func (s *FacilityStore) Update(ctx context.Context, facilityID string, ch FacilityChanges) error {
	set := bson.M{
		"name":               ch.Name,
		"type":               ch.Type,
		"address":            ch.Address,
		"acceptedWasteTypes": ch.AcceptedWasteTypes,
		"updatedAt":          time.Now().UTC(),
	}
	if ch.Status != "" {
		set["status"] = ch.Status
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"facilityId": facilityID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update facility %s: %w", facilityID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FacilityStore) Delete(ctx context.Context, facilityID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"facilityId": facilityID})
	if err != nil {
		return fmt.Errorf("delete facility %s: %w", facilityID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

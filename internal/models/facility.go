// server/internal/models/facility.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Facility is a recycling or transfer site that receives collected material.
type Facility struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FacilityID         string             `bson:"facilityId" json:"facilityId"` // User-friendly unique ID, e.g. "mrf-north"
	Name               string             `bson:"name" json:"name"`
	Type               string             `bson:"type" json:"type"` // e.g. "MRF", "TRANSFER_STATION", "COMPOST", "E_WASTE"
	Address            Address            `bson:"address" json:"address"`
	AcceptedWasteTypes []WasteType        `bson:"acceptedWasteTypes,omitempty" json:"acceptedWasteTypes"`
	Status             string             `bson:"status" json:"status"` // ACTIVE, INACTIVE, FULL_CAPACITY
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

const (
	FacilityActive       = "ACTIVE"
	FacilityInactive     = "INACTIVE"
	FacilityFullCapacity = "FULL_CAPACITY"
)

// server/internal/models/pickup.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PickupStatus is the lifecycle state of a pickup request.
type PickupStatus string

const (
	StatusPending   PickupStatus = "pending"
	StatusAssigned  PickupStatus = "assigned"
	StatusPickedUp  PickupStatus = "picked_up"
	StatusCompleted PickupStatus = "completed"
	StatusProcessed PickupStatus = "processed"
	StatusRejected  PickupStatus = "rejected"
	StatusCancelled PickupStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []PickupStatus{
	StatusPending,
	StatusAssigned,
	StatusPickedUp,
	StatusCompleted,
	StatusProcessed,
	StatusRejected,
	StatusCancelled,
}

func (s PickupStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s PickupStatus) Terminal() bool {
	return s == StatusProcessed || s == StatusRejected || s == StatusCancelled
}

// WasteType classifies the material of a pickup. Immutable after creation.
type WasteType string

const (
	WasteOrganic WasteType = "organic"
	WastePlastic WasteType = "plastic"
	WasteMetal   WasteType = "metal"
	WastePaper   WasteType = "paper"
	WasteGlass   WasteType = "glass"
	WasteEWaste  WasteType = "e_waste"
	WasteOther   WasteType = "other"
)

var WasteTypes = []WasteType{WasteOrganic, WastePlastic, WasteMetal, WastePaper, WasteGlass, WasteEWaste, WasteOther}

func (w WasteType) Valid() bool {
	for _, known := range WasteTypes {
		if w == known {
			return true
		}
	}
	return false
}

// ImageRef points at an image already held by the image store.
type ImageRef struct {
	PublicID  string `bson:"publicId,omitempty" json:"publicId,omitempty"`
	SecureURL string `bson:"secureUrl,omitempty" json:"secureUrl,omitempty"`
}

// Pickup is a single waste-collection request and its full lifecycle record.
// The three weight fields are independent measurements taken at creation,
// completion and recycler receipt.
type Pickup struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestedBy string             `bson:"requestedBy" json:"requestedBy"`
	WasteType   WasteType          `bson:"wasteType" json:"wasteType"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	Geom        *GeoPoint          `bson:"geom,omitempty" json:"geom,omitempty"`
	Image       ImageRef           `bson:"image" json:"image"`

	EstimatedWeightKg float64  `bson:"estimatedWeightKg" json:"estimatedWeightKg"`
	ActualWeightKg    *float64 `bson:"actualWeightKg,omitempty" json:"actualWeightKg,omitempty"`
	ReceivedWeightKg  *float64 `bson:"receivedWeightKg,omitempty" json:"receivedWeightKg,omitempty"`

	// ContaminationScore is canonical, always within [0, 1].
	ContaminationScore     float64   `bson:"contaminationScore" json:"contaminationScore"`
	ContaminationRawScore  int       `bson:"contaminationRawScore,omitempty" json:"contaminationRawScore,omitempty"`
	ContaminationLabel     string    `bson:"contaminationLabel" json:"contaminationLabel"`
	ContaminationRationale string    `bson:"contaminationRationale,omitempty" json:"contaminationRationale,omitempty"`
	EvaluatedAt            time.Time `bson:"evaluatedAt" json:"evaluatedAt"`

	Status     PickupStatus `bson:"status" json:"status"`
	AssignedTo string       `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	AssignedAt *time.Time   `bson:"assignedAt,omitempty" json:"assignedAt,omitempty"`

	PickedUpAt  *time.Time `bson:"pickedUpAt,omitempty" json:"pickedUpAt,omitempty"`
	DriverNotes string     `bson:"driverNotes,omitempty" json:"driverNotes,omitempty"`

	CompletedAt      *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CompletionPhoto  string     `bson:"completionPhoto,omitempty" json:"completionPhoto,omitempty"`
	DeliveredAddress string     `bson:"deliveredAddress,omitempty" json:"deliveredAddress,omitempty"`
	DeliveredGeom    *GeoPoint  `bson:"deliveredGeom,omitempty" json:"deliveredGeom,omitempty"`

	FacilityID string `bson:"facilityId,omitempty" json:"facilityId,omitempty"`

	ReceivedAt    *time.Time `bson:"receivedAt,omitempty" json:"receivedAt,omitempty"`
	RecyclerNotes string     `bson:"recyclerNotes,omitempty" json:"recyclerNotes,omitempty"`
	RecyclerProof string     `bson:"recyclerProof,omitempty" json:"recyclerProof,omitempty"`

	RejectedAt      *time.Time `bson:"rejectedAt,omitempty" json:"rejectedAt,omitempty"`
	RejectionReason string     `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`

	CancelledAt  *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy  string     `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancelReason string     `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Location returns a human readable location for alerts and scoring context.
func (p *Pickup) Location() string {
	if p.Address != "" {
		return p.Address
	}
	if p.Geom != nil {
		return p.Geom.String()
	}
	return "unknown location"
}

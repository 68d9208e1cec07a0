// server/internal/database/update.go
package database

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"waste-collection-api-server/internal/models"
)

// ErrNotFound is returned when no document matches an id, or when the
// document exists but fails the precondition of a conditional update. The
// two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("document not found")

// Precondition is the compare half of a compare-and-swap on a pickup.
type Precondition struct {
	// Statuses, when non-empty, lists the statuses the stored pickup may be in.
	Statuses []models.PickupStatus
	// Unassigned requires assignedTo to be unset.
	Unassigned bool
	// AssignedTo, when set, requires the stored assignee to equal it.
	AssignedTo string
}

// Matches evaluates the precondition against an in-memory document.
func (c Precondition) Matches(p *models.Pickup) bool {
	if len(c.Statuses) > 0 {
		ok := false
		for _, s := range c.Statuses {
			if p.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if c.Unassigned && p.AssignedTo != "" {
		return false
	}
	if c.AssignedTo != "" && p.AssignedTo != c.AssignedTo {
		return false
	}
	return true
}

func (c Precondition) filter(id primitive.ObjectID) bson.M {
	filter := bson.M{"_id": id}
	switch len(c.Statuses) {
	case 0:
	case 1:
		filter["status"] = c.Statuses[0]
	default:
		filter["status"] = bson.M{"$in": c.Statuses}
	}
	if c.Unassigned {
		// $in with null also matches a missing field.
		filter["assignedTo"] = bson.M{"$in": bson.A{nil, ""}}
	} else if c.AssignedTo != "" {
		filter["assignedTo"] = c.AssignedTo
	}
	return filter
}

// PickupUpdate is the swap half: the fields a transition writes. Nil fields
// are left untouched.
type PickupUpdate struct {
	Status     *models.PickupStatus
	AssignedTo *string
	AssignedAt *time.Time

	PickedUpAt  *time.Time
	DriverNotes *string

	CompletedAt      *time.Time
	ActualWeightKg   *float64
	CompletionPhoto  *string
	DeliveredAddress *string
	DeliveredGeom    *models.GeoPoint

	FacilityID *string

	ReceivedAt       *time.Time
	ReceivedWeightKg *float64
	RecyclerNotes    *string
	RecyclerProof    *string

	RejectedAt      *time.Time
	RejectionReason *string

	CancelledAt  *time.Time
	CancelledBy  *string
	CancelReason *string

	UpdatedAt time.Time
}

// setDoc renders the $set document for mongo.
func (u PickupUpdate) setDoc() bson.M {
	set := bson.M{"updatedAt": u.UpdatedAt}
	put := func(key string, present bool, v any) {
		if present {
			set[key] = v
		}
	}
	put("status", u.Status != nil, deref(u.Status))
	put("assignedTo", u.AssignedTo != nil, deref(u.AssignedTo))
	put("assignedAt", u.AssignedAt != nil, deref(u.AssignedAt))
	put("pickedUpAt", u.PickedUpAt != nil, deref(u.PickedUpAt))
	put("driverNotes", u.DriverNotes != nil, deref(u.DriverNotes))
	put("completedAt", u.CompletedAt != nil, deref(u.CompletedAt))
	put("actualWeightKg", u.ActualWeightKg != nil, deref(u.ActualWeightKg))
	put("completionPhoto", u.CompletionPhoto != nil, deref(u.CompletionPhoto))
	put("deliveredAddress", u.DeliveredAddress != nil, deref(u.DeliveredAddress))
	put("deliveredGeom", u.DeliveredGeom != nil, u.DeliveredGeom)
	put("facilityId", u.FacilityID != nil, deref(u.FacilityID))
	put("receivedAt", u.ReceivedAt != nil, deref(u.ReceivedAt))
	put("receivedWeightKg", u.ReceivedWeightKg != nil, deref(u.ReceivedWeightKg))
	put("recyclerNotes", u.RecyclerNotes != nil, deref(u.RecyclerNotes))
	put("recyclerProof", u.RecyclerProof != nil, deref(u.RecyclerProof))
	put("rejectedAt", u.RejectedAt != nil, deref(u.RejectedAt))
	put("rejectionReason", u.RejectionReason != nil, deref(u.RejectionReason))
	put("cancelledAt", u.CancelledAt != nil, deref(u.CancelledAt))
	put("cancelledBy", u.CancelledBy != nil, deref(u.CancelledBy))
	put("cancelReason", u.CancelReason != nil, deref(u.CancelReason))
	return set
}

// Apply writes the update onto an in-memory document.
func (u PickupUpdate) Apply(p *models.Pickup) {
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.AssignedTo != nil {
		p.AssignedTo = *u.AssignedTo
	}
	if u.AssignedAt != nil {
		p.AssignedAt = timePtr(*u.AssignedAt)
	}
	if u.PickedUpAt != nil {
		p.PickedUpAt = timePtr(*u.PickedUpAt)
	}
	if u.DriverNotes != nil {
		p.DriverNotes = *u.DriverNotes
	}
	if u.CompletedAt != nil {
		p.CompletedAt = timePtr(*u.CompletedAt)
	}
	if u.ActualWeightKg != nil {
		p.ActualWeightKg = floatPtr(*u.ActualWeightKg)
	}
	if u.CompletionPhoto != nil {
		p.CompletionPhoto = *u.CompletionPhoto
	}
	if u.DeliveredAddress != nil {
		p.DeliveredAddress = *u.DeliveredAddress
	}
	if u.DeliveredGeom != nil {
		g := *u.DeliveredGeom
		p.DeliveredGeom = &g
	}
	if u.FacilityID != nil {
		p.FacilityID = *u.FacilityID
	}
	if u.ReceivedAt != nil {
		p.ReceivedAt = timePtr(*u.ReceivedAt)
	}
	if u.ReceivedWeightKg != nil {
		p.ReceivedWeightKg = floatPtr(*u.ReceivedWeightKg)
	}
	if u.RecyclerNotes != nil {
		p.RecyclerNotes = *u.RecyclerNotes
	}
	if u.RecyclerProof != nil {
		p.RecyclerProof = *u.RecyclerProof
	}
	if u.RejectedAt != nil {
		p.RejectedAt = timePtr(*u.RejectedAt)
	}
	if u.RejectionReason != nil {
		p.RejectionReason = *u.RejectionReason
	}
	if u.CancelledAt != nil {
		p.CancelledAt = timePtr(*u.CancelledAt)
	}
	if u.CancelledBy != nil {
		p.CancelledBy = *u.CancelledBy
	}
	if u.CancelReason != nil {
		p.CancelReason = *u.CancelReason
	}
	p.UpdatedAt = u.UpdatedAt
}

// PickupFilter narrows List. Zero fields match everything.
type PickupFilter struct {
	Status      models.PickupStatus
	RequestedBy string
	AssignedTo  string
	FacilityID  string
	// Unassigned lists only pickups nobody has claimed yet.
	Unassigned bool
	Limit      int64
	Skip       int64
}

func (f PickupFilter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.RequestedBy != "" {
		q["requestedBy"] = f.RequestedBy
	}
	if f.Unassigned {
		q["assignedTo"] = bson.M{"$in": bson.A{nil, ""}}
	} else if f.AssignedTo != "" {
		q["assignedTo"] = f.AssignedTo
	}
	if f.FacilityID != "" {
		q["facilityId"] = f.FacilityID
	}
	return q
}

func (f PickupFilter) matches(p *models.Pickup) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.RequestedBy != "" && p.RequestedBy != f.RequestedBy {
		return false
	}
	if f.Unassigned && p.AssignedTo != "" {
		return false
	}
	if !f.Unassigned && f.AssignedTo != "" && p.AssignedTo != f.AssignedTo {
		return false
	}
	if f.FacilityID != "" && p.FacilityID != f.FacilityID {
		return false
	}
	return true
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(f float64) *float64 { return &f }

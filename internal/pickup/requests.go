package pickup

import "waste-collection-api-server/internal/models"

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID         string
	Role       models.Role
	FacilityID string
}

// CreateRequest submits a new pickup. Image must reference an uploaded
// image, ImageData may carry the original bytes for the buffer fallback;
// at least one of the two is required.
type CreateRequest struct {
	WasteType         models.WasteType
	EstimatedWeightKg float64
	Description       string
	Address           string
	Lat               *float64
	Lng               *float64
	Image             models.ImageRef
	ImageData         []byte
	ImageMIMEType     string
}

type AssignRequest struct {
	DriverID string
}

type PickedUpRequest struct {
	Notes string
}

type CompleteRequest struct {
	ActualWeightKg   *float64
	PhotoURL         string
	DeliveredAddress string
	Lat              *float64
	Lng              *float64
}

type FacilityRequest struct {
	FacilityID string
}

type ReceiveRequest struct {
	ReceivedWeightKg *float64
	ProofURL         string
	Notes            string
}

type RejectRequest struct {
	Reason string
}

type CancelRequest struct {
	Reason string
}

// Scope narrows List for drivers.
type Scope string

const (
	// ScopeMine lists pickups assigned to the calling driver.
	ScopeMine Scope = "mine"
	// ScopeOpen lists pending pickups nobody has claimed.
	ScopeOpen Scope = "open"
)

// ListFilter is the caller-facing list query. Role based restrictions are
// applied on top of it.
type ListFilter struct {
	Status     models.PickupStatus
	Scope      Scope
	FacilityID string
	Limit      int64
	Skip       int64
}

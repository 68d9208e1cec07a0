// Package events defines the typed lifecycle and alert events emitted by the
// pickup core and the Publisher collaborators that carry them downstream.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"waste-collection-api-server/internal/models"
)

// Kind names an event. One kind per committed transition, plus the
// contamination alert.
type Kind string

const (
	KindCreated            Kind = "pickup.created"
	KindAssigned           Kind = "pickup.assigned"
	KindPickedUp           Kind = "pickup.picked_up"
	KindCompleted          Kind = "pickup.completed"
	KindFacilityAssigned   Kind = "pickup.facility_assigned"
	KindProcessed          Kind = "pickup.processed"
	KindRejected           Kind = "pickup.rejected"
	KindCancelled          Kind = "pickup.cancelled"
	KindContaminationAlert Kind = "contamination.alert"
)

// Event is the payload handed to a Publisher. Fields that do not apply to a
// kind are left zero.
type Event struct {
	ID               string           `json:"id"`
	Kind             Kind             `json:"kind"`
	PickupID         string           `json:"pickupId,omitempty"`
	RequesterID      string           `json:"requesterId,omitempty"`
	DriverID         string           `json:"driverId,omitempty"`
	PreviousDriverID string           `json:"previousDriverId,omitempty"`
	ActorID          string           `json:"actorId,omitempty"`
	FacilityID       string           `json:"facilityId,omitempty"`
	WasteType        models.WasteType `json:"wasteType,omitempty"`
	WeightKg         *float64         `json:"weightKg,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	Score            int              `json:"score,omitempty"`
	Label            string           `json:"label,omitempty"`
	Location         string           `json:"location,omitempty"`
	ImageURL         string           `json:"imageUrl,omitempty"`
	OccurredAt       time.Time        `json:"occurredAt"`
}

// Publisher receives events. Implementations must be safe for concurrent use.
type Publisher interface {
	Emit(ctx context.Context, evt Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, evt Event) error

func (f PublisherFunc) Emit(ctx context.Context, evt Event) error { return f(ctx, evt) }

// Multi fans an event out to every publisher. A failing publisher does not
// stop the others; all errors are joined.
type Multi []Publisher

func (m Multi) Emit(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) error { return nil })

// Recorder keeps emitted events in memory, in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the recorded kinds in emission order.
func (r *Recorder) Kinds() []Kind {
	evts := r.Events()
	out := make([]Kind, len(evts))
	for i, e := range evts {
		out[i] = e.Kind
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

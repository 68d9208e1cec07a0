// Package notify turns pickup events into per-user notification records,
// stores them and pushes them to connected clients.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"waste-collection-api-server/internal/events"
	"waste-collection-api-server/internal/models"
)

// Store persists rendered notifications.
type Store interface {
	InsertMany(ctx context.Context, notes []models.Notification) error
}

// Directory resolves role wide audiences.
type Directory interface {
	UsersByRole(ctx context.Context, roles ...models.Role) ([]models.User, error)
}

// Pusher delivers a message to a connected user, if any.
type Pusher interface {
	Send(userID string, message []byte) error
}

// Dispatcher is an events.Publisher.
type Dispatcher struct {
	store     Store
	directory Directory
	pusher    Pusher
	logger    *slog.Logger
	now       func() time.Time
}

// NewDispatcher builds a dispatcher. pusher may be nil when no realtime
// channel is available.
func NewDispatcher(store Store, directory Directory, pusher Pusher, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		store:     store,
		directory: directory,
		pusher:    pusher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Message is the websocket frame pushed for each notification.
type Message struct {
	Event        string              `json:"event"`
	Notification models.Notification `json:"notification"`
}

var _ events.Publisher = (*Dispatcher)(nil)

func (d *Dispatcher) Emit(ctx context.Context, evt events.Event) error {
	notes, err := d.Render(ctx, evt)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		return nil
	}
	if err := d.store.InsertMany(ctx, notes); err != nil {
		return fmt.Errorf("store notifications for %s: %w", evt.Kind, err)
	}

	if d.pusher == nil {
		return nil
	}
	var errs []error
	for _, n := range notes {
		msg, err := json.Marshal(Message{Event: "notification", Notification: n})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := d.pusher.Send(n.UserID, msg); err != nil {
			d.logger.Warn("notification push failed", "userId", n.UserID, "kind", evt.Kind, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Render maps an event to the notifications it produces, one per distinct
// recipient.
func (d *Dispatcher) Render(ctx context.Context, evt events.Event) ([]models.Notification, error) {
	recipients := personal(evt)

	switch evt.Kind {
	case events.KindContaminationAlert:
		users, err := d.directory.UsersByRole(ctx, models.RoleCouncil, models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("resolve alert recipients: %w", err)
		}
		title, msg := alertMessage(evt)
		for _, u := range users {
			recipients = append(recipients, recipient{u.UserID, title, msg})
		}
	case events.KindFacilityAssigned:
		users, err := d.directory.UsersByRole(ctx, models.RoleRecycler)
		if err != nil {
			return nil, fmt.Errorf("resolve facility recipients: %w", err)
		}
		title, msg := incomingMessage(evt)
		for _, u := range users {
			if u.FacilityID == evt.FacilityID {
				recipients = append(recipients, recipient{u.UserID, title, msg})
			}
		}
	}

	created := d.now()
	data := payload(evt)
	seen := make(map[string]bool, len(recipients))
	var notes []models.Notification
	for _, r := range recipients {
		if r.userID == "" || seen[r.userID] {
			continue
		}
		seen[r.userID] = true
		notes = append(notes, models.Notification{
			ID:        uuid.NewString(),
			UserID:    r.userID,
			Type:      noteType(evt, r.userID),
			Title:     r.title,
			Message:   r.message,
			PickupID:  evt.PickupID,
			Data:      data,
			CreatedAt: created,
		})
	}
	return notes, nil
}

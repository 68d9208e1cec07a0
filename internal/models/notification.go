package models

import "time"

// Notification is a rendered, per-user record derived from a domain event.
type Notification struct {
	ID        string            `bson:"_id" json:"id"`
	UserID    string            `bson:"userId" json:"userId"`
	Type      string            `bson:"type" json:"type"`
	Title     string            `bson:"title" json:"title"`
	Message   string            `bson:"message" json:"message"`
	PickupID  string            `bson:"pickupId,omitempty" json:"pickupId,omitempty"`
	Data      map[string]string `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool              `bson:"read" json:"read"`
	CreatedAt time.Time         `bson:"createdAt" json:"createdAt"`
}

package contamination

import (
	"time"

	"github.com/google/uuid"

	"waste-collection-api-server/internal/events"
	"waste-collection-api-server/internal/models"
)

// DefaultAlertThreshold is the raw score at which an alert fires.
const DefaultAlertThreshold = 6

// AlertPolicy decides whether a raw score raises a contamination alert.
type AlertPolicy struct {
	Threshold int
}

func NewAlertPolicy(threshold int) AlertPolicy {
	if threshold < MinScore || threshold > MaxScore {
		threshold = DefaultAlertThreshold
	}
	return AlertPolicy{Threshold: threshold}
}

// ShouldAlert reports whether score meets or exceeds the threshold.
func (p AlertPolicy) ShouldAlert(score int) bool {
	return score >= p.Threshold
}

// AlertInput carries what the alert payload reports.
type AlertInput struct {
	PickupID    string
	RequesterID string
	WasteType   models.WasteType
	Location    string
	ImageURL    string
	Result      Result
	DetectedAt  time.Time
}

// AlertEvent builds the contamination alert payload.
func (p AlertPolicy) AlertEvent(in AlertInput) events.Event {
	return events.Event{
		ID:          uuid.NewString(),
		Kind:        events.KindContaminationAlert,
		PickupID:    in.PickupID,
		RequesterID: in.RequesterID,
		WasteType:   in.WasteType,
		Location:    in.Location,
		Score:       in.Result.Score,
		Label:       string(in.Result.Label),
		ImageURL:    in.ImageURL,
		OccurredAt:  in.DetectedAt,
	}
}

package notify

import (
	"fmt"
	"strconv"

	"waste-collection-api-server/internal/events"
	"waste-collection-api-server/internal/models"
)

// recipient is one rendered notification before it gets an id.
type recipient struct {
	userID  string
	title   string
	message string
}

// Types stored on the notification record.
const (
	TypePickupUpdate       = "pickup_update"
	TypeNewAssignment      = "new_assignment"
	TypeIncomingDelivery   = "incoming_delivery"
	TypeContaminationAlert = "contamination_alert"
)

func noteType(evt events.Event, userID string) string {
	switch {
	case evt.Kind == events.KindContaminationAlert:
		return TypeContaminationAlert
	case evt.Kind == events.KindAssigned && userID == evt.DriverID:
		return TypeNewAssignment
	case evt.Kind == events.KindFacilityAssigned && userID != evt.DriverID:
		return TypeIncomingDelivery
	}
	return TypePickupUpdate
}

// personal renders the notifications addressed to pickup participants.
// Role wide audiences are resolved by the dispatcher.
func personal(evt events.Event) []recipient {
	waste := wasteName(evt.WasteType)
	switch evt.Kind {
	case events.KindCreated:
		return []recipient{{evt.RequesterID, "Pickup requested",
			fmt.Sprintf("Your %s pickup was received and is waiting for a driver.", waste)}}

	case events.KindAssigned:
		out := []recipient{
			{evt.RequesterID, "Driver assigned",
				fmt.Sprintf("A driver has been assigned to your %s pickup.", waste)},
			{evt.DriverID, "New pickup assigned",
				fmt.Sprintf("You have a new %s pickup to collect.", waste)},
		}
		if evt.PreviousDriverID != "" {
			out = append(out, recipient{evt.PreviousDriverID, "Pickup reassigned",
				fmt.Sprintf("The %s pickup was reassigned to another driver.", waste)})
		}
		return out

	case events.KindPickedUp:
		return []recipient{{evt.RequesterID, "Waste collected",
			fmt.Sprintf("Your %s has been collected.", waste)}}

	case events.KindCompleted:
		return []recipient{{evt.RequesterID, "Pickup delivered",
			fmt.Sprintf("Your %s was delivered%s.", waste, weightSuffix(evt.WeightKg))}}

	case events.KindFacilityAssigned:
		return []recipient{{evt.DriverID, "Facility assigned",
			fmt.Sprintf("Deliver the %s pickup to facility %s.", waste, evt.FacilityID)}}

	case events.KindProcessed:
		return []recipient{
			{evt.RequesterID, "Material processed",
				fmt.Sprintf("Your %s was received by the recycler%s.", waste, weightSuffix(evt.WeightKg))},
			{evt.DriverID, "Delivery accepted",
				fmt.Sprintf("The recycler accepted the %s delivery.", waste)},
		}

	case events.KindRejected:
		msg := fmt.Sprintf("The recycler rejected the %s delivery: %s", waste, evt.Reason)
		return []recipient{
			{evt.RequesterID, "Material rejected", msg},
			{evt.DriverID, "Delivery rejected", msg},
		}

	case events.KindCancelled:
		msg := fmt.Sprintf("The %s pickup was cancelled.", waste)
		if evt.Reason != "" {
			msg = fmt.Sprintf("The %s pickup was cancelled: %s", waste, evt.Reason)
		}
		out := []recipient{{evt.DriverID, "Pickup cancelled", msg}}
		if evt.ActorID != evt.RequesterID {
			out = append(out, recipient{evt.RequesterID, "Pickup cancelled", msg})
		}
		return out
	}
	return nil
}

func alertMessage(evt events.Event) (string, string) {
	return "Contamination alert", fmt.Sprintf(
		"%s contamination (%d/10) detected in a %s pickup at %s.",
		evt.Label, evt.Score, wasteName(evt.WasteType), evt.Location)
}

func incomingMessage(evt events.Event) (string, string) {
	return "Incoming delivery", fmt.Sprintf(
		"A %s pickup has been routed to your facility.", wasteName(evt.WasteType))
}

// payload is the structured part of a notification.
func payload(evt events.Event) map[string]string {
	data := map[string]string{"kind": string(evt.Kind)}
	put := func(k, v string) {
		if v != "" {
			data[k] = v
		}
	}
	put("wasteType", string(evt.WasteType))
	put("facilityId", evt.FacilityID)
	put("reason", evt.Reason)
	put("label", evt.Label)
	put("location", evt.Location)
	put("imageUrl", evt.ImageURL)
	if evt.Score > 0 {
		data["score"] = strconv.Itoa(evt.Score)
	}
	if evt.WeightKg != nil {
		data["weightKg"] = strconv.FormatFloat(*evt.WeightKg, 'f', -1, 64)
	}
	return data
}

func wasteName(w models.WasteType) string {
	if w == models.WasteEWaste {
		return "e-waste"
	}
	if w == "" {
		return "waste"
	}
	return string(w)
}

func weightSuffix(kg *float64) string {
	if kg == nil {
		return ""
	}
	return fmt.Sprintf(" (%s kg)", strconv.FormatFloat(*kg, 'f', -1, 64))
}

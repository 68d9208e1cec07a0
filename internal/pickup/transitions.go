package pickup

import "waste-collection-api-server/internal/models"

// transitions is the legal transition table. Terminal statuses have no
// entry.
var transitions = map[models.PickupStatus][]models.PickupStatus{
	models.StatusPending:   {models.StatusAssigned, models.StatusCancelled},
	models.StatusAssigned:  {models.StatusPickedUp, models.StatusCancelled},
	models.StatusPickedUp:  {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted: {models.StatusProcessed, models.StatusRejected},
}

// assignable lists the statuses in which a supervisor may set the driver.
var assignable = []models.PickupStatus{models.StatusPending, models.StatusAssigned}

// assignAttempts bounds the assignee-pinned retries of Assign.
const assignAttempts = 3

// facilityAssignable lists the statuses in which AssignFacility may run.
var facilityAssignable = []models.PickupStatus{
	models.StatusPending,
	models.StatusAssigned,
	models.StatusPickedUp,
	models.StatusCompleted,
}

// CanTransition reports whether from -> to is an edge of the table. A
// same-status request is never a transition.
func CanTransition(from, to models.PickupStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s models.PickupStatus) []models.PickupStatus {
	return append([]models.PickupStatus(nil), transitions[s]...)
}

// checkTransition returns a *TransitionError unless from -> to is legal.
func checkTransition(from, to models.PickupStatus) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

func statusIn(s models.PickupStatus, set []models.PickupStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

package database

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"waste-collection-api-server/internal/models"
)

func TestPreconditionFilter(t *testing.T) {
	oid := primitive.NewObjectID()

	claim := Precondition{Statuses: []models.PickupStatus{models.StatusPending}, Unassigned: true}.filter(oid)
	if claim["_id"] != oid || claim["status"] != models.StatusPending {
		t.Errorf("claim filter = %v", claim)
	}
	if _, ok := claim["assignedTo"].(bson.M)["$in"]; !ok {
		t.Errorf("claim filter must require an unset assignee: %v", claim)
	}

	multi := Precondition{Statuses: []models.PickupStatus{models.StatusPending, models.StatusAssigned}}.filter(oid)
	in, ok := multi["status"].(bson.M)["$in"].([]models.PickupStatus)
	if !ok || len(in) != 2 {
		t.Errorf("multi-status filter = %v", multi)
	}

	owner := Precondition{Statuses: []models.PickupStatus{models.StatusAssigned}, AssignedTo: "drv-1"}.filter(oid)
	if owner["assignedTo"] != "drv-1" {
		t.Errorf("owner filter = %v", owner)
	}
}

func TestPickupUpdateSetDocOnlyCarriesPresentFields(t *testing.T) {
	now := time.Now()
	status := models.StatusCompleted
	weight := 4.8
	set := PickupUpdate{Status: &status, CompletedAt: &now, ActualWeightKg: &weight, UpdatedAt: now}.setDoc()

	want := map[string]any{
		"status":         models.StatusCompleted,
		"completedAt":    now,
		"actualWeightKg": 4.8,
		"updatedAt":      now,
	}
	if len(set) != len(want) {
		t.Fatalf("set = %v, want keys %v", set, want)
	}
	for k, v := range want {
		if set[k] != v {
			t.Errorf("set[%s] = %v, want %v", k, set[k], v)
		}
	}
}

func TestPickupUpdateApplyMatchesSetDoc(t *testing.T) {
	now := time.Now()
	status := models.StatusRejected
	reason := "mixed with food waste"
	upd := PickupUpdate{Status: &status, RejectedAt: &now, RejectionReason: &reason, UpdatedAt: now}

	p := models.Pickup{Status: models.StatusCompleted, DriverNotes: "left at gate"}
	upd.Apply(&p)
	if p.Status != models.StatusRejected || p.RejectionReason != reason || p.RejectedAt == nil {
		t.Errorf("applied = %+v", p)
	}
	if p.DriverNotes != "left at gate" {
		t.Errorf("untouched field changed: %q", p.DriverNotes)
	}
	set := upd.setDoc()
	if set["rejectionReason"] != reason || set["status"] != status {
		t.Errorf("setDoc = %v", set)
	}
}

func TestPickupFilterQuery(t *testing.T) {
	q := PickupFilter{Status: models.StatusPending, Unassigned: true, AssignedTo: "ignored"}.query()
	if q["status"] != models.StatusPending {
		t.Errorf("query = %v", q)
	}
	if _, ok := q["assignedTo"].(bson.M); !ok {
		t.Errorf("unassigned should win over AssignedTo: %v", q)
	}
	if len(PickupFilter{}.query()) != 0 {
		t.Errorf("empty filter should match everything")
	}
}

package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"waste-collection-api-server/internal/models"
)

func seedPickup(t *testing.T, m *MemoryStore, status models.PickupStatus, assignee string) string {
	t.Helper()
	p := &models.Pickup{
		RequestedBy: "res-1",
		WasteType:   models.WastePlastic,
		Status:      status,
		AssignedTo:  assignee,
		CreatedAt:   time.Now(),
	}
	if err := m.Insert(context.Background(), p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return p.ID.Hex()
}

func TestMemoryStore_UpdateIfAppliesWhenPreconditionHolds(t *testing.T) {
	m := NewMemoryStore()
	id := seedPickup(t, m, models.StatusPending, "")

	status := models.StatusAssigned
	driver := "drv-1"
	now := time.Now()
	got, err := m.UpdateIf(context.Background(), id,
		Precondition{Statuses: []models.PickupStatus{models.StatusPending}, Unassigned: true},
		PickupUpdate{Status: &status, AssignedTo: &driver, AssignedAt: &now, UpdatedAt: now},
	)
	if err != nil {
		t.Fatalf("UpdateIf: %v", err)
	}
	if got.Status != models.StatusAssigned || got.AssignedTo != "drv-1" || got.AssignedAt == nil {
		t.Errorf("updated pickup = %+v", got)
	}
}

func TestMemoryStore_UpdateIfFailedPreconditionIsNotFound(t *testing.T) {
	m := NewMemoryStore()
	id := seedPickup(t, m, models.StatusAssigned, "drv-1")

	status := models.StatusAssigned
	driver := "drv-2"
	_, err := m.UpdateIf(context.Background(), id,
		Precondition{Statuses: []models.PickupStatus{models.StatusPending}, Unassigned: true},
		PickupUpdate{Status: &status, AssignedTo: &driver},
	)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	stored, _ := m.FindByID(context.Background(), id)
	if stored.AssignedTo != "drv-1" {
		t.Errorf("assignee overwritten: %q", stored.AssignedTo)
	}

	if _, err := m.UpdateIf(context.Background(), "missing", Precondition{}, PickupUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id err = %v", err)
	}
}

func TestMemoryStore_ConcurrentClaimHasOneWinner(t *testing.T) {
	m := NewMemoryStore()
	id := seedPickup(t, m, models.StatusPending, "")

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			status := models.StatusAssigned
			driver := string(rune('a' + n))
			_, err := m.UpdateIf(context.Background(), id,
				Precondition{Statuses: []models.PickupStatus{models.StatusPending}, Unassigned: true},
				PickupUpdate{Status: &status, AssignedTo: &driver},
			)
			if err == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Fatalf("winners = %d, want 1", wins.Load())
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	m := NewMemoryStore()
	id := seedPickup(t, m, models.StatusPending, "")

	p, _ := m.FindByID(context.Background(), id)
	p.Status = models.StatusCancelled
	again, _ := m.FindByID(context.Background(), id)
	if again.Status != models.StatusPending {
		t.Errorf("stored status mutated through returned pointer")
	}
}

func TestMemoryStore_ListFiltersAndOrders(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, st := range []models.PickupStatus{models.StatusPending, models.StatusAssigned, models.StatusPending} {
		p := &models.Pickup{RequestedBy: "res-1", Status: st, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if st == models.StatusAssigned {
			p.AssignedTo = "drv-1"
		}
		_ = m.Insert(context.Background(), p)
	}

	pending, _ := m.List(context.Background(), PickupFilter{Status: models.StatusPending})
	if len(pending) != 2 || !pending[0].CreatedAt.After(pending[1].CreatedAt) {
		t.Errorf("pending list = %+v", pending)
	}
	open, _ := m.List(context.Background(), PickupFilter{Unassigned: true})
	if len(open) != 2 {
		t.Errorf("unassigned = %d, want 2", len(open))
	}
	mine, _ := m.List(context.Background(), PickupFilter{AssignedTo: "drv-1"})
	if len(mine) != 1 {
		t.Errorf("assigned to drv-1 = %d, want 1", len(mine))
	}
	page, _ := m.List(context.Background(), PickupFilter{Limit: 1, Skip: 5})
	if len(page) != 0 {
		t.Errorf("skip past end = %d", len(page))
	}
}

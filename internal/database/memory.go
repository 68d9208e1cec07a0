// server/internal/database/memory.go
package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"waste-collection-api-server/internal/models"
)

// MemoryStore is an in-process pickup store with the same conditional
// update semantics as PickupStore. Used by tests and local dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	pickups map[string]models.Pickup
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pickups: make(map[string]models.Pickup)}
}

func (m *MemoryStore) Insert(_ context.Context, p *models.Pickup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.pickups[p.ID.Hex()] = clonePickup(*p)
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*models.Pickup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pickups[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clonePickup(p)
	return &out, nil
}

func (m *MemoryStore) UpdateIf(_ context.Context, id string, cond Precondition, upd PickupUpdate) (*models.Pickup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pickups[id]
	if !ok || !cond.Matches(&p) {
		return nil, ErrNotFound
	}
	upd.Apply(&p)
	m.pickups[id] = p
	out := clonePickup(p)
	return &out, nil
}

func (m *MemoryStore) List(_ context.Context, f PickupFilter) ([]models.Pickup, error) {
	m.mu.Lock()
	var all []models.Pickup
	for _, p := range m.pickups {
		if f.matches(&p) {
			all = append(all, clonePickup(p))
		}
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.Hex() > all[j].ID.Hex()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	start := min(f.Skip, int64(len(all)))
	end := min(start+limit, int64(len(all)))
	out := all[start:end]
	if out == nil {
		out = []models.Pickup{}
	}
	return out, nil
}

func (m *MemoryStore) OutOfRangeScores(_ context.Context) ([]ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ScoreRecord
	for id, p := range m.pickups {
		if p.ContaminationScore < 0 || p.ContaminationScore > 1 {
			out = append(out, ScoreRecord{ID: id, Score: p.ContaminationScore})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SetScore(_ context.Context, id string, old, repaired float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pickups[id]
	if !ok {
		return false, ErrNotFound
	}
	if p.ContaminationScore != old {
		return false, nil
	}
	p.ContaminationScore = repaired
	m.pickups[id] = p
	return true, nil
}

// clonePickup copies the pointer fields so callers cannot mutate stored state.
func clonePickup(p models.Pickup) models.Pickup {
	out := p
	if p.Geom != nil {
		g := *p.Geom
		g.Coordinates = append([]float64(nil), p.Geom.Coordinates...)
		out.Geom = &g
	}
	if p.DeliveredGeom != nil {
		g := *p.DeliveredGeom
		g.Coordinates = append([]float64(nil), p.DeliveredGeom.Coordinates...)
		out.DeliveredGeom = &g
	}
	for _, tp := range []**time.Time{&out.AssignedAt, &out.PickedUpAt, &out.CompletedAt, &out.ReceivedAt, &out.RejectedAt, &out.CancelledAt} {
		if *tp != nil {
			*tp = timePtr(**tp)
		}
	}
	if out.ActualWeightKg != nil {
		out.ActualWeightKg = floatPtr(*out.ActualWeightKg)
	}
	if out.ReceivedWeightKg != nil {
		out.ReceivedWeightKg = floatPtr(*out.ReceivedWeightKg)
	}
	return out
}

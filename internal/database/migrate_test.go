package database

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"waste-collection-api-server/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRepairScores(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	ids := map[float64]string{}
	for _, score := range []float64{0.4444, 9, 85} {
		p := &models.Pickup{ContaminationScore: score, Status: models.StatusPending}
		_ = m.Insert(ctx, p)
		ids[score] = p.ID.Hex()
	}

	dry, err := RepairScores(ctx, m, true, discardLogger())
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Scanned != 2 || len(dry.Changes) != 2 || dry.Repaired != 0 {
		t.Errorf("dry run report = %+v", dry)
	}
	untouched, _ := m.FindByID(ctx, ids[9])
	if untouched.ContaminationScore != 9 {
		t.Fatalf("dry run wrote a score")
	}

	report, err := RepairScores(ctx, m, false, discardLogger())
	if err != nil {
		t.Fatalf("RepairScores: %v", err)
	}
	if report.Repaired != 2 {
		t.Errorf("report = %+v", report)
	}
	want := map[string]float64{ids[0.4444]: 0.4444, ids[9]: 0.8889, ids[85]: 0.85}
	for id, score := range want {
		p, _ := m.FindByID(ctx, id)
		if p.ContaminationScore != score {
			t.Errorf("pickup %s score = %v, want %v", id, p.ContaminationScore, score)
		}
	}

	again, err := RepairScores(ctx, m, false, discardLogger())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Scanned != 0 || again.Repaired != 0 {
		t.Errorf("second run should be a no-op, got %+v", again)
	}
}

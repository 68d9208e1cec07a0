// server/internal/database/migrate.go
package database

import (
	"context"
	"fmt"
	"log/slog"

	"waste-collection-api-server/internal/contamination"
)

// ScoreRecord is a stored contamination score outside the canonical range.
type ScoreRecord struct {
	ID    string
	Score float64
}

// ScoreRepairer is the storage surface the legacy score repair needs.
type ScoreRepairer interface {
	OutOfRangeScores(ctx context.Context) ([]ScoreRecord, error)
	// SetScore writes repaired only if the stored value still equals old.
	SetScore(ctx context.Context, id string, old, repaired float64) (bool, error)
}

// RepairChange describes one repaired record.
type RepairChange struct {
	ID   string  `json:"id"`
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// RepairReport summarises a RepairScores run.
type RepairReport struct {
	Scanned  int            `json:"scanned"`
	Repaired int            `json:"repaired"`
	Skipped  int            `json:"skipped"`
	DryRun   bool           `json:"dryRun"`
	Changes  []RepairChange `json:"changes"`
}

// RepairScores rewrites stored scores that were persisted on the wrong scale
// back into [0, 1]. Running it again after a successful run finds nothing.
// With dryRun set the report is produced but nothing is written.
func RepairScores(ctx context.Context, store ScoreRepairer, dryRun bool, logger *slog.Logger) (RepairReport, error) {
	report := RepairReport{DryRun: dryRun, Changes: []RepairChange{}}

	records, err := store.OutOfRangeScores(ctx)
	if err != nil {
		return report, err
	}
	report.Scanned = len(records)

	for _, rec := range records {
		repaired, changed := contamination.RepairStoredScore(rec.Score)
		if !changed {
			report.Skipped++
			continue
		}
		change := RepairChange{ID: rec.ID, From: rec.Score, To: repaired}
		if dryRun {
			report.Changes = append(report.Changes, change)
			continue
		}
		ok, err := store.SetScore(ctx, rec.ID, rec.Score, repaired)
		if err != nil {
			return report, fmt.Errorf("repair %s: %w", rec.ID, err)
		}
		if !ok {
			// Changed underneath us; the next run will pick it up if still bad.
			logger.Warn("score repair skipped, record changed concurrently", "pickupId", rec.ID)
			report.Skipped++
			continue
		}
		report.Repaired++
		report.Changes = append(report.Changes, change)
		logger.Info("score repaired", "pickupId", rec.ID, "from", rec.Score, "to", repaired)
	}
	return report, nil
}

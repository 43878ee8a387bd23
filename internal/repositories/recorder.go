package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/trx/internal/models"
	"github.com/desertthunder/trx/internal/poller"
)

// StatsRecorder stores poller snapshots as stats samples.
type StatsRecorder struct {
	repo *StatsRepository
}

// NewStatsRecorder creates a new [StatsRecorder] writing to repo.
func NewStatsRecorder(repo *StatsRepository) *StatsRecorder {
	return &StatsRecorder{repo: repo}
}

// Record implements [poller.Recorder].
func (r *StatsRecorder) Record(ctx context.Context, s poller.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Stats == nil {
		return nil
	}

	freeSpace := models.UnknownFreeSpace
	if s.FreeSpace != nil {
		freeSpace = s.FreeSpace.SizeBytes
	}

	if _, err := r.repo.Record(*s.Stats, freeSpace, s.FetchedAt); err != nil {
		return fmt.Errorf("failed to record stats sample: %w", err)
	}
	return nil
}

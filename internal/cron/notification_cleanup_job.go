package cron

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultNotificationRetention = 30 * 24 * time.Hour
	defaultCleanupBatch          = 500
	defaultCleanupMaxBatches     = 20
)

type readNotificationPruner interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

type NotificationCleanupJobParams struct {
	Repository readNotificationPruner
	Retention  time.Duration
	BatchSize  int
	MaxBatches int
}

// NewNotificationCleanupJob prunes inbox rows read longer ago than Retention.
// A single run deletes at most BatchSize*MaxBatches rows; the backlog carries
// over to the next cycle.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	job := &notificationCleanupJob{
		inbox:      params.Repository,
		retention:  params.Retention,
		batchSize:  params.BatchSize,
		maxBatches: params.MaxBatches,
		clock:      time.Now,
	}
	if job.retention <= 0 {
		job.retention = defaultNotificationRetention
	}
	if job.batchSize <= 0 {
		job.batchSize = defaultCleanupBatch
	}
	if job.maxBatches <= 0 {
		job.maxBatches = defaultCleanupMaxBatches
	}
	return job, nil
}

type notificationCleanupJob struct {
	inbox      readNotificationPruner
	retention  time.Duration
	batchSize  int
	maxBatches int
	clock      func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) (int64, error) {
	// Fixed for the whole run so late batches do not chase newly read rows.
	cutoff := j.clock().UTC().Add(-j.retention)

	var total int64
	for batch := 0; batch < j.maxBatches; batch++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		deleted, err := j.inbox.DeleteReadBefore(ctx, cutoff, j.batchSize)
		total += deleted
		if err != nil {
			return total, fmt.Errorf("prune read notifications (batch %d): %w", batch+1, err)
		}
		if deleted < int64(j.batchSize) {
			break
		}
	}
	return total, nil
}

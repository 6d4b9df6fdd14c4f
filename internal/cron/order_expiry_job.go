package cron

import (
	"context"
	"fmt"
	"time"
)

const defaultPendingOrderTTL = 72 * time.Hour

type pendingOrderExpirer interface {
	ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type OrderExpiryJobParams struct {
	Orders    pendingOrderExpirer
	TTL       time.Duration
	BatchSize int
}

// NewOrderExpiryJob cancels pending orders nobody has started paying for
// within TTL, returning their stock to the catalog.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	return &orderExpiryJob{
		orders: params.Orders,
		ttl:    ttl,
		batch:  params.BatchSize,
		now:    time.Now,
	}, nil
}

type orderExpiryJob struct {
	orders pendingOrderExpirer
	ttl    time.Duration
	batch  int
	now    func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) (int64, error) {
	expired, err := j.orders.ExpirePending(ctx, j.now().Add(-j.ttl), j.batch)
	if err != nil {
		return int64(expired), fmt.Errorf("expire pending orders: %w", err)
	}
	return int64(expired), nil
}

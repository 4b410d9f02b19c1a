package engine

import (
	"context"
	"fmt"

	"wordsync/internal/model"
)

type Collector struct {
	store Store
}

func NewCollector(store Store) *Collector {
	return &Collector{store: store}
}

// CollectPending возвращает все неотправленные мутации владельца, старые первыми.
func (c *Collector) CollectPending(ctx context.Context, owner string) ([]model.Record, error) {
	recs, err := c.store.QueryByStatus(ctx, owner, model.PendingStatuses...)
	if err != nil {
		return nil, fmt.Errorf("collect pending: %w", err)
	}
	return recs, nil
}

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/repository"
)

type deliveryStore struct {
	mu         sync.Mutex
	seq        int64
	deliveries map[types.DeliveryID]*model.Delivery
}

func (r *deliveryStore) PutDelivery(ctx context.Context, delivery *model.Delivery) error {
	if delivery.ID == "" {
		return goerr.Wrap(repository.ErrInvalidInput, "delivery ID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.deliveries[delivery.ID]; exists {
		return goerr.Wrap(repository.ErrAlreadyExists, "delivery already stored",
			goerr.V("deliveryID", delivery.ID),
		)
	}

	r.seq++
	cpy := *delivery
	cpy.Seq = r.seq
	cpy.Payload = append([]byte(nil), delivery.Payload...)
	r.deliveries[delivery.ID] = &cpy

	// Seq is assigned here, the caller sees it
	delivery.Seq = cpy.Seq

	return nil
}

func (r *deliveryStore) ListDeliveries(ctx context.Context, limit int) ([]*model.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deliveries := make([]*model.Delivery, 0, len(r.deliveries))
	for _, d := range r.deliveries {
		cpy := *d
		cpy.Payload = append([]byte(nil), d.Payload...)
		deliveries = append(deliveries, &cpy)
	}

	sort.Slice(deliveries, func(i, j int) bool {
		return deliveries[i].Seq < deliveries[j].Seq
	})

	if limit > 0 && len(deliveries) > limit {
		deliveries = deliveries[:limit]
	}

	return deliveries, nil
}

func (r *deliveryStore) DeleteDelivery(ctx context.Context, id types.DeliveryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.deliveries[id]; !exists {
		return goerr.Wrap(repository.ErrNotFound, "delivery not found",
			goerr.V("deliveryID", id),
		)
	}

	delete(r.deliveries, id)
	return nil
}

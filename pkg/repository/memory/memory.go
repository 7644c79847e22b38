package memory

import (
	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// NewBindingRepository creates an in-memory binding repository.
func NewBindingRepository() interfaces.BindingRepository {
	return &bindingRepository{
		bindings: make(map[types.BindingID]*model.Binding),
	}
}

// NewDeliveryStore creates an in-memory delivery store.
func NewDeliveryStore() interfaces.DeliveryStore {
	return &deliveryStore{
		deliveries: make(map[types.DeliveryID]*model.Delivery),
	}
}

package interfaces

import (
	"context"

	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// BindingRepository persists webhook bindings. The object model is owned by
// the external CRUD layer; this interface is the narrow slice the core
// needs.
type BindingRepository interface {
	GetBinding(ctx context.Context, id types.BindingID) (*model.Binding, error)
	ListBindings(ctx context.Context) ([]*model.Binding, error)
	SaveBinding(ctx context.Context, binding *model.Binding) error
}

// DeliveryStore keeps raw deliveries for asynchronous processing, ordered
// by arrival sequence. Deliveries are deleted only after their automations
// have run, so a crash mid-batch re-processes at most the in-flight item.
type DeliveryStore interface {
	PutDelivery(ctx context.Context, delivery *model.Delivery) error
	ListDeliveries(ctx context.Context, limit int) ([]*model.Delivery, error)
	DeleteDelivery(ctx context.Context, id types.DeliveryID) error
}

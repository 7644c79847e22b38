package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// DeliveryInput is a validated inbound webhook delivery ready for
// dispatch. Body always carries the raw signed bytes; Payload is set only
// when the transport wraps the JSON document (form-encoded deliveries) and
// defaults to Body.
type DeliveryInput struct {
	BindingID types.BindingID
	Event     types.EventType
	Signature string
	Body      []byte
	Payload   []byte
}

// UseCase exposes the core operations to the controller layer. The Admin*
// operations never return an error across this boundary; failures are
// collected into the result's errors list.
type UseCase interface {
	HandleDelivery(ctx context.Context, input *DeliveryInput) (*model.DeliveryResult, error)

	SweepBindings(ctx context.Context, deadline time.Time) error
	DrainDeliveries(ctx context.Context, deadline time.Time) error

	AdminCheck(ctx context.Context, id types.BindingID) *model.AdminResult
	AdminSynchronize(ctx context.Context, id types.BindingID) *model.AdminResult
	AdminStop(ctx context.Context, id types.BindingID) *model.AdminResult
	AdminInfo(ctx context.Context, id types.BindingID) *model.AdminResult
	AdminRevoke(ctx context.Context, id types.BindingID) *model.AdminResult
	AdminInstallation(ctx context.Context, id types.BindingID) *model.AdminResult
}

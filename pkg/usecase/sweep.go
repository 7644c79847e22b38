package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/repository"
	"github.com/m-mizutani/ghsync/pkg/utils/errutil"
	"github.com/m-mizutani/ghsync/pkg/utils/logging"
)

// SweepBindings runs one time-budgeted reconciliation pass over all
// bindings. The budget is checked between items only; each item's
// reconciliation is atomic from the caller's perspective and unvisited
// items are left for the next run. Per-item failures become the binding's
// error status, never an aborted pass.
func (x *UseCase) SweepBindings(ctx context.Context, deadline time.Time) error {
	bindings, err := x.clients.Bindings().ListBindings(ctx)
	if err != nil {
		return err
	}

	visited := 0
	for i, binding := range bindings {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			logging.From(ctx).Info("Sweep budget exhausted",
				slog.Int("visited", visited),
				slog.Int("remaining", len(bindings)-i),
			)
			break
		}

		if binding.SyncMode == types.SyncModeNone {
			continue
		}
		visited++

		if err := x.CheckBinding(ctx, binding); err != nil {
			errutil.HandleError(ctx, "fail to check binding", goerr.Wrap(err,
				"binding check failed during sweep",
				goerr.V("bindingID", binding.ID),
			))
			// status is already "error"; auto mode may still reconverge
		}

		if err := x.AutoSynchronize(ctx, binding); err != nil {
			errutil.HandleError(ctx, "fail to auto-synchronize binding", goerr.Wrap(err,
				"auto-synchronization failed during sweep",
				goerr.V("bindingID", binding.ID),
			))
		}
	}

	logging.From(ctx).Info("Sweep pass finished",
		slog.Int("total", len(bindings)),
		slog.Int("visited", visited),
	)

	return nil
}

// DrainDeliveries processes stored deliveries in arrival order within the
// time budget. A delivery is deleted only after its automations have run,
// so a crash mid-batch re-processes at most the in-flight item.
func (x *UseCase) DrainDeliveries(ctx context.Context, deadline time.Time) error {
	deliveries, err := x.clients.Deliveries().ListDeliveries(ctx, 0)
	if err != nil {
		return err
	}

	processed := 0
	for i, delivery := range deliveries {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			logging.From(ctx).Info("Drain budget exhausted",
				slog.Int("processed", processed),
				slog.Int("remaining", len(deliveries)-i),
			)
			break
		}

		if err := x.processDelivery(ctx, delivery); err != nil {
			errutil.HandleError(ctx, "fail to process stored delivery", goerr.Wrap(err,
				"stored delivery processing failed",
				goerr.V("deliveryID", delivery.ID),
				goerr.V("bindingID", delivery.BindingID),
			))
			// keep ordering: do not jump over a failing delivery, retry
			// it on the next drain
			break
		}
		processed++
	}

	return nil
}

func (x *UseCase) processDelivery(ctx context.Context, delivery *model.Delivery) error {
	binding, err := x.clients.Bindings().GetBinding(ctx, delivery.BindingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// binding deleted while queued, drop the delivery instead of
			// wedging the queue
			logging.From(ctx).Warn("Dropping delivery for removed binding",
				slog.Any("deliveryID", delivery.ID),
				slog.Any("bindingID", delivery.BindingID),
			)
			return x.clients.Deliveries().DeleteDelivery(ctx, delivery.ID)
		}
		return err
	}

	payload, err := model.ParsePayload(delivery.Payload)
	if err != nil {
		logging.From(ctx).Warn("Dropping undecodable delivery",
			slog.Any("deliveryID", delivery.ID),
			slog.Any("error", err),
		)
		return x.clients.Deliveries().DeleteDelivery(ctx, delivery.ID)
	}

	triggered := x.Dispatch(ctx, binding, delivery.Event, payload)
	logging.From(ctx).Debug("Processed stored delivery",
		slog.Any("deliveryID", delivery.ID),
		slog.Int("triggered", triggered),
	)

	return x.clients.Deliveries().DeleteDelivery(ctx, delivery.ID)
}

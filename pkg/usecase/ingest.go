package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/utils/logging"
)

// HandleDelivery verifies and ingests one inbound webhook delivery.
// Signature failures reject the delivery outright; it is never queued.
func (x *UseCase) HandleDelivery(ctx context.Context, input *interfaces.DeliveryInput) (*model.DeliveryResult, error) {
	binding, err := x.clients.Bindings().GetBinding(ctx, input.BindingID)
	if err != nil {
		return nil, goerr.Wrap(err, "unknown delivery binding",
			goerr.V("bindingID", input.BindingID),
		)
	}

	if err := model.VerifySignature(input.Body, input.Signature, binding.Secret); err != nil {
		return nil, goerr.Wrap(err, "webhook signature verification failed",
			goerr.V("bindingID", input.BindingID),
		)
	}

	document := input.Payload
	if document == nil {
		document = input.Body
	}
	payload, err := model.ParsePayload(document)
	if err != nil {
		return nil, err
	}

	now := logging.CtxTime(ctx)
	result := &model.DeliveryResult{
		Event: input.Event,
	}
	if login, ok := payload.Lookup("sender->login"); ok {
		result.SenderLogin = model.RenderValue(login)
	}

	if x.async {
		delivery := &model.Delivery{
			ID:         types.DeliveryID(uuid.NewString()),
			BindingID:  binding.ID,
			Event:      input.Event,
			Payload:    document,
			ReceivedAt: now,
		}
		if err := x.clients.Deliveries().PutDelivery(ctx, delivery); err != nil {
			return nil, err
		}
		result.Queued = true
	} else {
		result.Triggered = x.Dispatch(ctx, binding, input.Event, payload)
	}

	binding.EventCount++
	binding.LastEventAt = &now
	if err := x.clients.Bindings().SaveBinding(ctx, binding); err != nil {
		return nil, err
	}

	result.LogEntry = deliveryLogEntry(now, input.Event, result)

	return result, nil
}

// deliveryLogEntry renders the per-delivery line handed to the external
// case-log writer.
func deliveryLogEntry(at time.Time, event types.EventType, result *model.DeliveryResult) string {
	sender := result.SenderLogin
	if sender == "" {
		sender = "unknown"
	}

	if result.Queued {
		return fmt.Sprintf("%s: received %s event from %s, queued for processing",
			at.Format(time.RFC3339), event, sender)
	}
	return fmt.Sprintf("%s: received %s event from %s, triggered %d automation(s)",
		at.Format(time.RFC3339), event, sender, result.Triggered)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/utils/errutil"
	"github.com/m-mizutani/ghsync/pkg/utils/logging"
)

// Dispatch runs every automation link of the binding that listens to the
// event and whose conditions hold. A failing automation is logged and
// skipped; siblings in the same pass still run. Returns the number of
// triggered automations.
func (x *UseCase) Dispatch(ctx context.Context, binding *model.Binding, event types.EventType, payload model.Payload) int {
	triggered := 0

	for _, link := range binding.Links {
		if link.Status != types.LinkStatusActive {
			continue
		}
		if link.Automation == nil || !link.Automation.ListensTo(event) {
			continue
		}

		met, err := link.ConditionsMet(payload)
		if err != nil {
			errutil.HandleError(ctx, "fail to evaluate automation conditions", goerr.Wrap(err,
				"condition evaluation failed",
				goerr.V("bindingID", binding.ID),
				goerr.V("automationID", link.Automation.ID),
			))
			continue
		}
		if !met {
			continue
		}

		triggered++

		if err := x.runAutomation(ctx, link.Automation, event, payload); err != nil {
			errutil.HandleError(ctx, "automation handler failed", goerr.Wrap(err,
				"automation run failed",
				goerr.V("bindingID", binding.ID),
				goerr.V("automationID", link.Automation.ID),
				goerr.V("event", event),
			))
		}
	}

	logging.From(ctx).Debug("Dispatched event",
		slog.Any("bindingID", binding.ID),
		slog.Any("event", event),
		slog.Int("triggered", triggered),
	)

	return triggered
}

func (x *UseCase) runAutomation(ctx context.Context, automation *model.Automation, event types.EventType, payload model.Payload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = goerr.New(fmt.Sprintf("automation handler panic: %v", r),
				goerr.V("automationID", automation.ID),
			)
		}
	}()

	handler := automation.Handler
	if handler == nil {
		return goerr.Wrap(types.ErrConfiguration, "automation has no handler",
			goerr.V("automationID", automation.ID),
		)
	}

	if automation.ScopePath == "" {
		return handler.HandleEvent(ctx, event, payload, nil, nil)
	}

	value, ok := payload.Lookup(automation.ScopePath)
	if !ok {
		return goerr.Wrap(types.ErrInvalidScope, "scope path not found in payload",
			goerr.V("scopePath", automation.ScopePath),
		)
	}
	elements, ok := value.([]any)
	if !ok {
		return goerr.Wrap(types.ErrInvalidScope, "scope path does not resolve to an array",
			goerr.V("scopePath", automation.ScopePath),
		)
	}

	// the accumulator is threaded across the batch so the handler can
	// build a single end-of-scope aggregate
	acc := map[string]any{}

	for _, element := range elements {
		scoped := model.Payload{}
		if obj, ok := element.(map[string]any); ok {
			for k, v := range obj {
				scoped[k] = v
			}
		} else {
			scoped["value"] = element
		}
		scoped[model.ContextRoot] = map[string]any(payload)

		if err := handler.HandleEvent(ctx, event, payload, scoped, acc); err != nil {
			return err
		}
	}

	return handler.HandleScopeEnd(ctx, event, payload, acc)
}

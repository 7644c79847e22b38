package usecase

import (
	"context"

	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/templating"
)

// MessageSink receives rendered automation messages, typically the
// external case-log writer.
type MessageSink func(ctx context.Context, message string)

// TemplateHandler is the built-in automation handler: it renders a
// template per activation and an optional summary template at the end of a
// scoped batch, counting activations in the accumulator.
type TemplateHandler struct {
	template        string
	summaryTemplate string
	sink            MessageSink
}

var _ model.Handler = (*TemplateHandler)(nil)

const accCountKey = "count"

func NewTemplateHandler(template, summaryTemplate string, sink MessageSink) *TemplateHandler {
	return &TemplateHandler{
		template:        template,
		summaryTemplate: summaryTemplate,
		sink:            sink,
	}
}

func (x *TemplateHandler) HandleEvent(ctx context.Context, event types.EventType, payload, scope model.Payload, acc map[string]any) error {
	input := &templating.Input{
		Event:   event,
		Payload: payload,
	}
	if scope != nil {
		// scoped activation: the element is the payload, the full payload
		// moves behind the context root
		input.Payload = scope
		input.Context = payload
	}

	x.sink(ctx, templating.Render(x.template, input))

	if acc != nil {
		count, _ := acc[accCountKey].(int)
		acc[accCountKey] = count + 1
	}

	return nil
}

func (x *TemplateHandler) HandleScopeEnd(ctx context.Context, event types.EventType, payload model.Payload, acc map[string]any) error {
	if x.summaryTemplate == "" {
		return nil
	}

	count, _ := acc[accCountKey].(int)
	input := &templating.Input{
		Event:   event,
		Payload: payload,
		Context: model.Payload{accCountKey: float64(count)},
	}

	x.sink(ctx, templating.Render(x.summaryTemplate, input))

	return nil
}

package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/usecase"
)

func TestTemplateHandler(t *testing.T) {
	ctx := context.Background()

	collect := func() (*[]string, usecase.MessageSink) {
		var messages []string
		return &messages, func(ctx context.Context, message string) {
			messages = append(messages, message)
		}
	}

	t.Run("renders per scoped element and a summary", func(t *testing.T) {
		messages, sink := collect()
		handler := usecase.NewTemplateHandler(
			"commit [[id]] on [[context->ref]]",
			"[[@count context->count change changes]] received",
			sink,
		)

		uc, _ := newTestUseCase(&providerMock{})
		binding := repoBinding()
		binding.Links[0].Automation.Handler = handler
		binding.Links[0].Automation.ScopePath = "commits"

		payload := pushPayload(t, `{"ref":"refs/heads/main","commits":[{"id":"c1"},{"id":"c2"}]}`)
		gt.V(t, uc.Dispatch(ctx, binding, "push", payload)).Equal(1)

		gt.A(t, *messages).Length(3)
		gt.V(t, (*messages)[0]).Equal("commit c1 on refs/heads/main")
		gt.V(t, (*messages)[1]).Equal("commit c2 on refs/heads/main")
		gt.V(t, (*messages)[2]).Equal("2 changes received")
	})

	t.Run("renders once without a scope", func(t *testing.T) {
		messages, sink := collect()
		handler := usecase.NewTemplateHandler("[[event]] by [[sender->login]]", "", sink)

		gt.NoError(t, handler.HandleEvent(ctx, types.EventType("push"),
			pushPayload(t, `{"sender":{"login":"alice"}}`), nil, nil))
		gt.A(t, *messages).Length(1)
		gt.V(t, (*messages)[0]).Equal("push by alice")
	})

	t.Run("empty summary template emits nothing at scope end", func(t *testing.T) {
		messages, sink := collect()
		handler := usecase.NewTemplateHandler("x", "", sink)

		gt.NoError(t, handler.HandleScopeEnd(ctx, "push", model.Payload{}, map[string]any{}))
		gt.A(t, *messages).Length(0)
	})
}

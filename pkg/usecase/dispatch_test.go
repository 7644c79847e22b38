package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

func pushPayload(t *testing.T, raw string) model.Payload {
	t.Helper()
	p, err := model.ParsePayload([]byte(raw))
	gt.NoError(t, err)
	return p
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("triggers a matching automation once", func(t *testing.T) {
		uc, _ := newTestUseCase(&providerMock{})
		handler := &handlerMock{}
		binding := repoBinding()
		binding.Links[0].Automation.Handler = handler

		payload := pushPayload(t, `{"ref":"refs/heads/main","sender":{"login":"alice"}}`)
		gt.V(t, uc.Dispatch(ctx, binding, "push", payload)).Equal(1)
		gt.A(t, handler.events).Length(1)
		gt.V(t, handler.scopeEnds).Equal(0)
	})

	t.Run("event type must match", func(t *testing.T) {
		uc, _ := newTestUseCase(&providerMock{})
		handler := &handlerMock{}
		binding := repoBinding()
		binding.Links[0].Automation.Handler = handler

		gt.V(t, uc.Dispatch(ctx, binding, "release", pushPayload(t, `{}`))).Equal(0)
		gt.A(t, handler.events).Length(0)
	})

	t.Run("inactive link is skipped", func(t *testing.T) {
		uc, _ := newTestUseCase(&providerMock{})
		handler := &handlerMock{}
		binding := repoBinding()
		binding.Links[0].Automation.Handler = handler
		binding.Links[0].Status = types.LinkStatusInactive

		gt.V(t, uc.Dispatch(ctx, binding, "push", pushPayload(t, `{}`))).Equal(0)
	})

	t.Run("conditions gate the dispatch", func(t *testing.T) {
		uc, _ := newTestUseCase(&providerMock{})
		handler := &handlerMock{}
		binding := repoBinding()
		binding.Links[0].Automation.Handler = handler
		binding.Links[0].Conditions = []string{
			`ref=refs/heads/(main|master)`,
			`NOT_NULL(sender->login)`,
		}

		ok := pushPayload(t, `{"ref":"refs/heads/main","sender":{"login":"alice"}}`)
		gt.V(t, uc.Dispatch(ctx, binding, "push", ok)).Equal(1)

		wrongBranch := pushPayload(t, `{"ref":"refs/heads/dev","sender":{"login":"alice"}}`)
		gt.V(t, uc.Dispatch(ctx, binding, "push", wrongBranch)).Equal(0)

		noSender := pushPayload(t, `{"ref":"refs/heads/main","sender":{}}`)
		gt.V(t, uc.Dispatch(ctx, binding, "push", noSender)).Equal(0)
	})

	t.Run("scope path expands per element with one scope end", func(t *testing.T) {
		uc, _ := newTestUseCase(&providerMock{})
		handler := &handlerMock{}
		binding := repoBinding()
		binding.Links[0].Automation.Handler = handler
		binding.Links[0].Automation.ScopePath = "commits"

		payload := pushPayload(t, `{"ref":"refs/heads/main","commits":[{"id":"c1"},{"id":"c2"}]}`)
		gt.V(t, uc.Dispatch(ctx, binding, "push", payload)).Equal(1)

		gt.A(t, handler.scopes).Length(2)
		gt.V(t, handler.scopes[0]["id"]).Equal(any("c1"))
		gt.V(t, handler.scopes[1]["id"]).Equal(any("c2"))
		gt.V(t, handler.scopeEnds).Equal(1)

		// each scoped context also carries the full payload
		inner, ok := handler.scopes[0][model.ContextRoot].(map[string]any)
		gt.True(t, ok)
		gt.V(t, inner["ref"]).Equal(any("refs/heads/main"))
	})

	t.Run("a failing automation never blocks its siblings", func(t *testing.T) {
		uc, _ := newTestUseCase(&providerMock{})
		angry := &handlerMock{panicOnRun: true}
		calm := &handlerMock{}
		binding := repoBinding()
		binding.Links[0].Automation.Handler = angry
		binding.Links = append(binding.Links, &model.AutomationLink{
			Automation: &model.Automation{
				ID:      "a2",
				Events:  []types.EventType{"push"},
				Handler: calm,
			},
			Status: types.LinkStatusActive,
		})

		// both count as triggered, the panic is contained
		gt.V(t, uc.Dispatch(ctx, binding, "push", pushPayload(t, `{}`))).Equal(2)
		gt.A(t, calm.events).Length(1)
	})

	t.Run("invalid scope is contained per automation", func(t *testing.T) {
		uc, _ := newTestUseCase(&providerMock{})
		scoped := &handlerMock{}
		plain := &handlerMock{}
		binding := repoBinding()
		binding.Links[0].Automation.Handler = scoped
		binding.Links[0].Automation.ScopePath = "ref"
		binding.Links = append(binding.Links, &model.AutomationLink{
			Automation: &model.Automation{
				ID:      "a2",
				Events:  []types.EventType{"push"},
				Handler: plain,
			},
			Status: types.LinkStatusActive,
		})

		uc.Dispatch(ctx, binding, "push", pushPayload(t, `{"ref":"not-an-array"}`))
		gt.A(t, scoped.events).Length(0)
		gt.A(t, plain.events).Length(1)
	})
}

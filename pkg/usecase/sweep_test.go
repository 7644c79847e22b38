package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/ghsync/pkg/domain/interfaces"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/usecase"
)

func TestSweepBindings(t *testing.T) {
	ctx := context.Background()

	t.Run("checks every binding with a sync mode", func(t *testing.T) {
		uc, clients := newTestUseCase(&providerMock{})

		active := repoBinding()
		disabled := repoBinding()
		disabled.ID = "b2"
		disabled.SyncMode = types.SyncModeNone
		gt.NoError(t, clients.Bindings().SaveBinding(ctx, active))
		gt.NoError(t, clients.Bindings().SaveBinding(ctx, disabled))

		gt.NoError(t, uc.SweepBindings(ctx, time.Time{}))

		checked := gt.R1(clients.Bindings().GetBinding(ctx, "b1")).NoError(t)
		gt.V(t, checked.Status).Equal(types.SyncStatusUnsynchronized)

		// a disabled binding is left untouched by the sweep
		skipped := gt.R1(clients.Bindings().GetBinding(ctx, "b2")).NoError(t)
		gt.V(t, skipped.Status).Equal(types.SyncStatusUnset)
	})

	t.Run("exhausted budget stops before visiting items", func(t *testing.T) {
		uc, clients := newTestUseCase(&providerMock{})
		binding := repoBinding()
		binding.Status = types.SyncStatusActive
		gt.NoError(t, clients.Bindings().SaveBinding(ctx, binding))

		gt.NoError(t, uc.SweepBindings(ctx, time.Now().Add(-time.Second)))

		untouched := gt.R1(clients.Bindings().GetBinding(ctx, "b1")).NoError(t)
		gt.V(t, untouched.Status).Equal(types.SyncStatusActive)
	})

	t.Run("a failing binding does not abort the pass", func(t *testing.T) {
		provider := &providerMock{
			getHook: func(ctx context.Context, connector *model.Connector, target model.Target, hookID types.GitHubHookID) (*model.Hook, error) {
				if hookID == 99 {
					return nil, &types.ProviderAPIError{StatusCode: 502, Message: "boom"}
				}
				return remoteHook(hookID, true, "https://ghsync.example.com/webhook/github/b2", "issues", "push"), nil
			},
		}
		uc, clients := newTestUseCase(provider)

		failing := repoBinding()
		failing.Configuration = &model.RemoteConfiguration{RemoteID: 99}
		healthy := repoBinding()
		healthy.ID = "b2"
		healthy.Configuration = &model.RemoteConfiguration{RemoteID: 100}
		gt.NoError(t, clients.Bindings().SaveBinding(ctx, failing))
		gt.NoError(t, clients.Bindings().SaveBinding(ctx, healthy))

		gt.NoError(t, uc.SweepBindings(ctx, time.Time{}))

		gt.V(t, gt.R1(clients.Bindings().GetBinding(ctx, "b1")).NoError(t).Status).
			Equal(types.SyncStatusError)
		gt.V(t, gt.R1(clients.Bindings().GetBinding(ctx, "b2")).NoError(t).Status).
			Equal(types.SyncStatusActive)
	})
}

func TestDrainDeliveries(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"ref":"refs/heads/main","sender":{"login":"alice"}}`)

	queue := func(t *testing.T, uc *usecase.UseCase, binding *model.Binding) {
		t.Helper()
		sig, err := model.SignBody("sha256", body, binding.Secret)
		gt.NoError(t, err)
		_, err = uc.HandleDelivery(ctx, &interfaces.DeliveryInput{
			BindingID: binding.ID,
			Event:     "push",
			Signature: sig,
			Body:      body,
		})
		gt.NoError(t, err)
	}

	t.Run("processes stored deliveries in order and deletes them", func(t *testing.T) {
		uc, clients := newTestUseCase(&providerMock{}, usecase.WithAsyncDelivery(true))
		handler := &handlerMock{}
		binding := repoBinding()
		binding.Links[0].Automation.Handler = handler
		gt.NoError(t, clients.Bindings().SaveBinding(ctx, binding))

		queue(t, uc, binding)
		queue(t, uc, binding)

		gt.NoError(t, uc.DrainDeliveries(ctx, time.Time{}))
		gt.A(t, handler.events).Length(2)

		remaining := gt.R1(clients.Deliveries().ListDeliveries(ctx, 0)).NoError(t)
		gt.A(t, remaining).Length(0)
	})

	t.Run("exhausted budget leaves the queue intact", func(t *testing.T) {
		uc, clients := newTestUseCase(&providerMock{}, usecase.WithAsyncDelivery(true))
		binding := repoBinding()
		binding.Links[0].Automation.Handler = &handlerMock{}
		gt.NoError(t, clients.Bindings().SaveBinding(ctx, binding))

		queue(t, uc, binding)

		gt.NoError(t, uc.DrainDeliveries(ctx, time.Now().Add(-time.Second)))
		remaining := gt.R1(clients.Deliveries().ListDeliveries(ctx, 0)).NoError(t)
		gt.A(t, remaining).Length(1)
	})

	t.Run("deliveries for a removed binding are dropped", func(t *testing.T) {
		uc, clients := newTestUseCase(&providerMock{}, usecase.WithAsyncDelivery(true))
		binding := repoBinding()
		gt.NoError(t, clients.Bindings().SaveBinding(ctx, binding))
		queue(t, uc, binding)

		gt.NoError(t, clients.Deliveries().PutDelivery(ctx, &model.Delivery{
			ID:         "orphan",
			BindingID:  "gone",
			Event:      "push",
			Payload:    body,
			ReceivedAt: time.Now(),
		}))

		gt.NoError(t, uc.DrainDeliveries(ctx, time.Time{}))
		remaining := gt.R1(clients.Deliveries().ListDeliveries(ctx, 0)).NoError(t)
		gt.A(t, remaining).Length(0)
	})
}

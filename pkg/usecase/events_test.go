package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/usecase"
)

func TestListeningEvents(t *testing.T) {
	t.Run("defaults to push without active links", func(t *testing.T) {
		binding := &model.Binding{ID: "b1"}
		gt.V(t, usecase.ListeningEventsForTest(binding)).Equal([]string{"push"})

		binding.Links = []*model.AutomationLink{
			{
				Automation: &model.Automation{Events: []types.EventType{"issues"}},
				Status:     types.LinkStatusInactive,
			},
		}
		gt.V(t, usecase.ListeningEventsForTest(binding)).Equal([]string{"push"})
	})

	t.Run("sorted union over active links", func(t *testing.T) {
		binding := &model.Binding{
			ID: "b1",
			Links: []*model.AutomationLink{
				{
					Automation: &model.Automation{Events: []types.EventType{"push", "release"}},
					Status:     types.LinkStatusActive,
				},
				{
					Automation: &model.Automation{Events: []types.EventType{"issues", "push"}},
					Status:     types.LinkStatusActive,
				},
			},
		}
		gt.V(t, usecase.ListeningEventsForTest(binding)).Equal([]string{"issues", "push", "release"})
	})
}

func TestCallbackURL(t *testing.T) {
	binding := &model.Binding{ID: "b1"}

	t.Run("appends the webhook path to the base URL", func(t *testing.T) {
		uc := usecase.New(nil, usecase.WithBaseURL("https://ghsync.example.com"))
		url := gt.R1(uc.CallbackURLForTest(binding)).NoError(t)
		gt.V(t, url).Equal("https://ghsync.example.com/webhook/github/b1")
	})

	t.Run("authority override rewrites host and scheme", func(t *testing.T) {
		uc := usecase.New(nil,
			usecase.WithBaseURL("http://localhost:8000"),
			usecase.WithAuthorityOverride("hooks.example.com", "https"),
		)
		url := gt.R1(uc.CallbackURLForTest(binding)).NoError(t)
		gt.V(t, url).Equal("https://hooks.example.com/webhook/github/b1")
	})

	t.Run("missing base URL is a configuration error", func(t *testing.T) {
		uc := usecase.New(nil)
		_, err := uc.CallbackURLForTest(binding)
		gt.Error(t, err)
	})
}

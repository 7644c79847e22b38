package usecase

import (
	"sort"

	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// defaultEvents is the expected event set when a binding has no active
// automation links.
var defaultEvents = []string{"push"}

// listeningEvents computes the event names the remote webhook must
// subscribe to: the union over the binding's active automation links,
// lexicographically sorted for deterministic comparison.
func listeningEvents(binding *model.Binding) []string {
	seen := map[string]struct{}{}
	for _, link := range binding.Links {
		if link.Status != types.LinkStatusActive || link.Automation == nil {
			continue
		}
		for _, event := range link.Automation.Events {
			seen[string(event)] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return append([]string(nil), defaultEvents...)
	}

	events := make([]string, 0, len(seen))
	for event := range seen {
		events = append(events, event)
	}
	sort.Strings(events)

	return events
}

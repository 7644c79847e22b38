package model

import (
	"context"
	"regexp"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// Handler reacts to one automation activation. HandleEvent runs once per
// activation (or once per scope element when the automation declares a
// scope path); HandleScopeEnd runs once after all elements of a scoped
// batch so handlers can produce a single aggregate (acc is threaded across
// the batch).
type Handler interface {
	HandleEvent(ctx context.Context, event types.EventType, payload, scope Payload, acc map[string]any) error
	HandleScopeEnd(ctx context.Context, event types.EventType, payload Payload, acc map[string]any) error
}

// Automation is a rule reacting to one or more event types, with an
// optional scope path selecting a payload array to iterate.
type Automation struct {
	ID        types.AutomationID `json:"id"`
	Name      string             `json:"name"`
	Events    []types.EventType  `json:"events"`
	ScopePath string             `json:"scope_path,omitempty"`

	Handler Handler `json:"-"`
}

// ListensTo reports whether the automation reacts to the event type.
func (x *Automation) ListensTo(event types.EventType) bool {
	return slices.Contains(x.Events, event)
}

// AutomationLink attaches an automation to a binding with up to three
// textual conditions evaluated against the event payload.
type AutomationLink struct {
	Automation *Automation      `json:"automation"`
	Status     types.LinkStatus `json:"status"`
	Conditions []string         `json:"conditions,omitempty"`
}

const maxConditions = 3

var (
	ptnNotNullCondition = regexp.MustCompile(`^NOT_NULL\((.*)\)$`)
	ptnMatchCondition   = regexp.MustCompile(`^([>\w-]+)=(.*)$`)
)

// ConditionsMet evaluates the link's conditions against the payload. All
// conditions are AND-ed; an unset condition is met. Supported forms are
// "NOT_NULL(path)" (fails when the resolved value is absent or null) and
// "path=regex" (fails unless the regex matches the string form of the
// resolved value).
func (x *AutomationLink) ConditionsMet(payload Payload) (bool, error) {
	if len(x.Conditions) > maxConditions {
		return false, goerr.Wrap(types.ErrConfiguration, "too many conditions",
			goerr.V("count", len(x.Conditions)),
		)
	}

	for _, cond := range x.Conditions {
		if cond == "" {
			continue
		}

		if m := ptnNotNullCondition.FindStringSubmatch(cond); m != nil {
			val, ok := payload.Lookup(m[1])
			if !ok || val == nil {
				return false, nil
			}
			continue
		}

		if m := ptnMatchCondition.FindStringSubmatch(cond); m != nil {
			ptn, err := regexp.Compile(m[2])
			if err != nil {
				return false, goerr.Wrap(err, "invalid condition regex",
					goerr.V("condition", cond),
				)
			}

			val, ok := payload.Lookup(m[1])
			if !ok || !ptn.MatchString(RenderValue(val)) {
				return false, nil
			}
			continue
		}

		return false, goerr.Wrap(types.ErrConfiguration, "unrecognized condition form",
			goerr.V("condition", cond),
		)
	}

	return true, nil
}

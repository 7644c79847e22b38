package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/repository"
)

type bindingRepository struct {
	mu       sync.RWMutex
	bindings map[types.BindingID]*model.Binding
}

func (r *bindingRepository) GetBinding(ctx context.Context, id types.BindingID) (*model.Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	binding, exists := r.bindings[id]
	if !exists {
		return nil, goerr.Wrap(repository.ErrNotFound, "binding not found",
			goerr.V("bindingID", id),
		)
	}

	return copyBinding(binding), nil
}

func (r *bindingRepository) ListBindings(ctx context.Context) ([]*model.Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bindings := make([]*model.Binding, 0, len(r.bindings))
	for _, binding := range r.bindings {
		bindings = append(bindings, copyBinding(binding))
	}

	return bindings, nil
}

func (r *bindingRepository) SaveBinding(ctx context.Context, binding *model.Binding) error {
	if binding.ID == "" {
		return goerr.Wrap(repository.ErrInvalidInput, "binding ID is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.bindings[binding.ID] = copyBinding(binding)

	return nil
}

// copyBinding clones the binding's own state. Connector and Automation
// pointers are shared; both are treated as immutable reference data owned
// by the external CRUD layer.
func copyBinding(src *model.Binding) *model.Binding {
	dst := *src

	if src.Configuration != nil {
		conf := *src.Configuration
		dst.Configuration = &conf
	}
	if src.ExternalData != nil {
		data := *src.ExternalData
		dst.ExternalData = &data
	}
	if src.LastEventAt != nil {
		at := *src.LastEventAt
		dst.LastEventAt = &at
	}
	if src.Links != nil {
		dst.Links = make([]*model.AutomationLink, len(src.Links))
		for i, link := range src.Links {
			cpy := *link
			cpy.Conditions = append([]string(nil), link.Conditions...)
			dst.Links[i] = &cpy
		}
	}

	return &dst
}

package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
)

// Administrative operations for the external controller layer. These never
// fail across the boundary: failures are collected into the result's
// errors list, enriched with a contextual hint when the provider message
// has one.

func operationError(err error) string {
	var apiErr *types.ProviderAPIError
	if errors.As(err, &apiErr) {
		if hint := apiErr.Hint(); hint != "" {
			return fmt.Sprintf("%s (%s)", apiErr.Error(), hint)
		}
		return apiErr.Error()
	}
	return err.Error()
}

func (x *UseCase) loadBinding(ctx context.Context, id types.BindingID, result *model.AdminResult) *model.Binding {
	binding, err := x.clients.Bindings().GetBinding(ctx, id)
	if err != nil {
		result.AddError(operationError(err))
		return nil
	}
	return binding
}

func (x *UseCase) AdminCheck(ctx context.Context, id types.BindingID) *model.AdminResult {
	result := &model.AdminResult{}

	binding := x.loadBinding(ctx, id, result)
	if binding == nil {
		return result
	}

	if err := x.CheckBinding(ctx, binding); err != nil {
		result.AddError(operationError(err))
	}
	result.Status = binding.Status

	return result
}

func (x *UseCase) AdminSynchronize(ctx context.Context, id types.BindingID) *model.AdminResult {
	result := &model.AdminResult{}

	binding := x.loadBinding(ctx, id, result)
	if binding == nil {
		return result
	}

	if err := x.SynchronizeBinding(ctx, binding); err != nil {
		result.AddError(operationError(err))
	}
	result.Status = binding.Status

	return result
}

func (x *UseCase) AdminStop(ctx context.Context, id types.BindingID) *model.AdminResult {
	result := &model.AdminResult{}

	binding := x.loadBinding(ctx, id, result)
	if binding == nil {
		return result
	}

	if err := x.DeleteBindingSynchronization(ctx, binding); err != nil {
		result.AddError(operationError(err))
	}
	result.Status = binding.Status

	return result
}

func (x *UseCase) AdminInfo(ctx context.Context, id types.BindingID) *model.AdminResult {
	result := &model.AdminResult{}

	binding := x.loadBinding(ctx, id, result)
	if binding == nil {
		return result
	}

	if err := x.RefreshExternalData(ctx, binding); err != nil {
		result.AddError(operationError(err))
		return result
	}
	result.Status = binding.Status
	result.Metadata = binding.ExternalData

	return result
}

func (x *UseCase) AdminRevoke(ctx context.Context, id types.BindingID) *model.AdminResult {
	result := &model.AdminResult{}

	binding := x.loadBinding(ctx, id, result)
	if binding == nil {
		return result
	}

	if !binding.HasConnector() {
		result.AddError("binding has no connector to revoke")
		return result
	}

	x.clients.Auth().Revoke(binding.Connector)

	return result
}

func (x *UseCase) AdminInstallation(ctx context.Context, id types.BindingID) *model.AdminResult {
	result := &model.AdminResult{}

	binding := x.loadBinding(ctx, id, result)
	if binding == nil {
		return result
	}

	if !binding.HasConnector() {
		result.AddError("binding has no connector")
		return result
	}

	installID, err := x.clients.Provider().FindInstallation(ctx, binding.Connector)
	if err != nil {
		result.AddError(operationError(err))
		return result
	}
	result.InstallationID = installID

	return result
}

package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/model"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/utils/logging"
)

func remoteStatus(hook *model.Hook) types.SyncStatus {
	if hook.Active {
		return types.SyncStatusActive
	}
	return types.SyncStatusInactive
}

// CheckBinding probes the remote webhook and derives the binding's status
// without modifying the remote side. The new status is persisted before
// returning; a transport or API failure yields status "error" and the
// underlying error.
func (x *UseCase) CheckBinding(ctx context.Context, binding *model.Binding) error {
	status, err := x.checkStatus(ctx, binding)

	binding.Status = status
	if saveErr := x.clients.Bindings().SaveBinding(ctx, binding); saveErr != nil && err == nil {
		err = saveErr
	}

	logging.From(ctx).Debug("Checked binding synchronization",
		slog.Any("bindingID", binding.ID),
		slog.Any("status", status),
	)

	return err
}

func (x *UseCase) checkStatus(ctx context.Context, binding *model.Binding) (types.SyncStatus, error) {
	if binding.SyncMode == types.SyncModeNone {
		return types.SyncStatusUnset, nil
	}

	if binding.Configuration == nil || binding.Configuration.RemoteID == 0 {
		return x.defaultStatus, nil
	}

	hook, err := x.clients.Provider().GetHook(ctx, binding.Connector, binding.Target(), binding.Configuration.RemoteID)
	if err != nil {
		return types.SyncStatusError, goerr.Wrap(err, "failed to probe remote webhook",
			goerr.V("bindingID", binding.ID),
			goerr.V("remoteID", binding.Configuration.RemoteID),
		)
	}
	if hook == nil {
		// removed out-of-band
		return types.SyncStatusUnsynchronized, nil
	}

	expectedURL, err := x.callbackURL(binding)
	if err != nil {
		return types.SyncStatusError, err
	}

	if !hook.Matches(expectedURL, listeningEvents(binding)) {
		return types.SyncStatusUnsynchronized, nil
	}

	return remoteStatus(hook), nil
}

// SynchronizeBinding converges the remote webhook to the locally expected
// configuration, creating it when absent and updating it by id otherwise.
func (x *UseCase) SynchronizeBinding(ctx context.Context, binding *model.Binding) error {
	hook, err := x.synchronize(ctx, binding)
	if err != nil {
		binding.Status = types.SyncStatusError
		if saveErr := x.clients.Bindings().SaveBinding(ctx, binding); saveErr != nil {
			logging.From(ctx).Error("Failed to persist error status",
				slog.Any("bindingID", binding.ID),
				slog.Any("error", saveErr),
			)
		}
		return err
	}

	binding.Configuration = &model.RemoteConfiguration{
		RemoteID: hook.ID,
		SyncedAt: time.Now(),
	}
	binding.Status = remoteStatus(hook)

	if err := x.clients.Bindings().SaveBinding(ctx, binding); err != nil {
		return err
	}

	logging.From(ctx).Info("Synchronized binding",
		slog.Any("bindingID", binding.ID),
		slog.Any("remoteID", hook.ID),
		slog.Any("status", binding.Status),
	)

	return nil
}

func (x *UseCase) synchronize(ctx context.Context, binding *model.Binding) (*model.Hook, error) {
	callbackURL, err := x.callbackURL(binding)
	if err != nil {
		return nil, err
	}
	binding.CallbackURL = callbackURL

	input := &model.HookInput{
		URL:    callbackURL,
		Secret: binding.Secret,
		Events: listeningEvents(binding),
		Active: true,
	}

	provider := x.clients.Provider()
	target := binding.Target()

	remoteID := types.GitHubHookID(0)
	if binding.Configuration != nil {
		remoteID = binding.Configuration.RemoteID
	}

	if remoteID != 0 {
		// the remote hook may have been deleted out-of-band; re-create
		// in that case instead of updating a ghost
		existing, err := provider.GetHook(ctx, binding.Connector, target, remoteID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to probe remote webhook before update",
				goerr.V("bindingID", binding.ID),
			)
		}
		if existing == nil {
			remoteID = 0
		}
	}

	if remoteID == 0 {
		created, err := provider.CreateHook(ctx, binding.Connector, target, input)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create remote webhook",
				goerr.V("bindingID", binding.ID),
			)
		}
		return created, nil
	}

	updated, err := provider.UpdateHook(ctx, binding.Connector, target, remoteID, input)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update remote webhook",
			goerr.V("bindingID", binding.ID),
			goerr.V("remoteID", remoteID),
		)
	}
	return updated, nil
}

// DeleteBindingSynchronization removes the remote webhook when it still
// exists, then unconditionally clears the local configuration and cached
// metadata. The binding ends in "unset" even when the remote delete fails;
// a later synchronize recreates from scratch.
func (x *UseCase) DeleteBindingSynchronization(ctx context.Context, binding *model.Binding) error {
	var deleteErr error

	if binding.Configuration != nil && binding.Configuration.RemoteID != 0 {
		provider := x.clients.Provider()
		target := binding.Target()
		remoteID := binding.Configuration.RemoteID

		hook, err := provider.GetHook(ctx, binding.Connector, target, remoteID)
		if err != nil {
			deleteErr = err
		} else if hook != nil {
			if err := provider.DeleteHook(ctx, binding.Connector, target, remoteID); err != nil {
				deleteErr = goerr.Wrap(err, "failed to delete remote webhook",
					goerr.V("bindingID", binding.ID),
					goerr.V("remoteID", remoteID),
				)
			}
		}
	}

	binding.Configuration = nil
	binding.ExternalData = nil
	binding.Status = types.SyncStatusUnset

	if err := x.clients.Bindings().SaveBinding(ctx, binding); err != nil {
		return err
	}

	return deleteErr
}

// RefreshExternalData fetches the denormalized repository metadata shown
// by the external layer. Organization targets have none.
func (x *UseCase) RefreshExternalData(ctx context.Context, binding *model.Binding) error {
	if binding.Type != types.TargetRepository {
		return goerr.Wrap(types.ErrConfiguration, "external metadata is only available for repository bindings",
			goerr.V("bindingID", binding.ID),
			goerr.V("type", binding.Type),
		)
	}

	metadata, err := x.clients.Provider().GetRepositoryMetadata(ctx, binding.Connector, binding.Owner, binding.Name)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch repository metadata",
			goerr.V("bindingID", binding.ID),
		)
	}

	binding.ExternalData = metadata

	return x.clients.Bindings().SaveBinding(ctx, binding)
}

// AutoSynchronize runs after a local mutation: when the binding opted into
// automatic mode and is currently out of sync, it synchronizes and, for
// repository targets, refreshes metadata in the same pass.
func (x *UseCase) AutoSynchronize(ctx context.Context, binding *model.Binding) error {
	if binding.SyncMode != types.SyncModeAuto {
		return nil
	}
	if binding.Status != types.SyncStatusUnsynchronized && binding.Status != types.SyncStatusError {
		return nil
	}

	if err := x.SynchronizeBinding(ctx, binding); err != nil {
		return err
	}

	if binding.Type == types.TargetRepository {
		if err := x.RefreshExternalData(ctx, binding); err != nil {
			// metadata is cosmetic, the synchronization itself succeeded
			logging.From(ctx).Warn("Failed to refresh repository metadata",
				slog.Any("bindingID", binding.ID),
				slog.Any("error", err),
			)
		}
	}

	return nil
}

// UpdateBinding records a local mutation. Secret rotation always forces
// "unsynchronized" because remote comparison cannot see the secret; the
// auto-synchronize policy then reconverges when enabled.
func (x *UseCase) UpdateBinding(ctx context.Context, binding *model.Binding, secretRotated bool) error {
	if secretRotated {
		binding.Status = types.SyncStatusUnsynchronized
	}

	if callbackURL, err := x.callbackURL(binding); err == nil {
		binding.CallbackURL = callbackURL
	}

	if err := x.clients.Bindings().SaveBinding(ctx, binding); err != nil {
		return err
	}

	return x.AutoSynchronize(ctx, binding)
}

package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/ghsync/pkg/domain/types"
	"github.com/m-mizutani/ghsync/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Webhook configures how callback URLs are built and how inbound
// deliveries are processed.
type Webhook struct {
	baseURL        string
	callbackHost   string
	callbackScheme string
	defaultStatus  string
	async          bool
}

func (x *Webhook) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Public base URL of this server, used to build hook callback URLs",
			Category:    "Webhook",
			Destination: &x.baseURL,
			Sources:     cli.EnvVars("GHSYNC_BASE_URL"),
		},
		&cli.StringFlag{
			Name:        "callback-host",
			Usage:       "Override the host of generated callback URLs",
			Category:    "Webhook",
			Destination: &x.callbackHost,
			Sources:     cli.EnvVars("GHSYNC_CALLBACK_HOST"),
		},
		&cli.StringFlag{
			Name:        "callback-scheme",
			Usage:       "Override the scheme of generated callback URLs [http|https]",
			Category:    "Webhook",
			Destination: &x.callbackScheme,
			Sources:     cli.EnvVars("GHSYNC_CALLBACK_SCHEME"),
		},
		&cli.StringFlag{
			Name:        "default-status",
			Usage:       "Status assigned to bindings without a synchronized hook [unsynchronized|unset]",
			Category:    "Webhook",
			Value:       string(types.SyncStatusUnsynchronized),
			Destination: &x.defaultStatus,
			Sources:     cli.EnvVars("GHSYNC_DEFAULT_STATUS"),
		},
		&cli.BoolFlag{
			Name:        "async",
			Usage:       "Store deliveries for the sweep worker instead of dispatching inline",
			Category:    "Webhook",
			Destination: &x.async,
			Sources:     cli.EnvVars("GHSYNC_ASYNC"),
		},
	}
}

// UseCaseOptions validates the flag values and converts them into use
// case options.
func (x *Webhook) UseCaseOptions() ([]usecase.Option, error) {
	status := types.SyncStatus(x.defaultStatus)
	switch status {
	case types.SyncStatusUnsynchronized, types.SyncStatusUnset:
		// acceptable policies

	default:
		return nil, goerr.Wrap(types.ErrInvalidOption, "invalid default status",
			goerr.V("status", x.defaultStatus),
		)
	}

	options := []usecase.Option{
		usecase.WithBaseURL(x.baseURL),
		usecase.WithDefaultStatus(status),
		usecase.WithAsyncDelivery(x.async),
	}
	if x.callbackHost != "" || x.callbackScheme != "" {
		options = append(options, usecase.WithAuthorityOverride(x.callbackHost, x.callbackScheme))
	}

	return options, nil
}

func (x *Webhook) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("BaseURL", x.baseURL),
		slog.Any("CallbackHost", x.callbackHost),
		slog.Any("CallbackScheme", x.callbackScheme),
		slog.Any("DefaultStatus", x.defaultStatus),
		slog.Bool("Async", x.async),
	)
}

package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/gots/slice"
	"github.com/m-mizutani/ghsync/pkg/cli/config"
	"github.com/m-mizutani/ghsync/pkg/infra"
	"github.com/m-mizutani/ghsync/pkg/usecase"
	"github.com/m-mizutani/ghsync/pkg/utils/logging"

	"github.com/urfave/cli/v3"
)

func sweepCommand() *cli.Command {
	var (
		timeLimit time.Duration

		webhook  config.Webhook
		database config.Database
		sentry   config.Sentry
	)
	sweepFlags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "time-limit",
			Usage:       "Stop starting new work after this duration (0: no limit)",
			Value:       50 * time.Second,
			Sources:     cli.EnvVars("GHSYNC_SWEEP_TIME_LIMIT"),
			Destination: &timeLimit,
		},
	}

	return &cli.Command{
		Name:    "sweep",
		Aliases: []string{"w"},
		Usage:   "Run one reconciliation pass and drain stored deliveries",
		Flags: slice.Flatten(
			sweepFlags,
			webhook.Flags(),
			database.Flags(),
			sentry.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("starting sweep",
				slog.Any("TimeLimit", timeLimit),
				slog.Any("Webhook", &webhook),
				slog.Any("Database", &database),
				slog.Any("Sentry", &sentry),
			)

			if err := sentry.Configure(ctx); err != nil {
				return err
			}

			var infraOptions []infra.Option
			if db, err := database.NewClient(ctx); err != nil {
				return err
			} else if db != nil {
				defer db.Close()
				infraOptions = append(infraOptions,
					infra.WithBindings(db),
					infra.WithDeliveries(db),
				)
			}

			ucOptions, err := webhook.UseCaseOptions()
			if err != nil {
				return err
			}

			clients := infra.New(infraOptions...)
			uc := usecase.New(clients, ucOptions...)

			var deadline time.Time
			if timeLimit > 0 {
				deadline = time.Now().Add(timeLimit)
			}

			if err := uc.SweepBindings(ctx, deadline); err != nil {
				return err
			}

			return uc.DrainDeliveries(ctx, deadline)
		},
	}
}

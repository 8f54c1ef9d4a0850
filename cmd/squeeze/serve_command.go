package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"squeeze/internal/budget"
	"squeeze/internal/compress"
	"squeeze/internal/daemon"
	"squeeze/internal/events"
	"squeeze/internal/logging"
	"squeeze/internal/metrics"
	"squeeze/internal/notifications"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bindFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API in the foreground",
		Long: `Run the HTTP API until SIGINT or SIGTERM. Stopping cancels the active job
and removes the last upload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.session()
			if err != nil {
				return err
			}
			if bind := strings.TrimSpace(bindFlag); bind != "" {
				cfg.Server.Bind = bind
			}

			runCtx := cmd.Context()

			eng, store := buildEngine(runCtx, cfg, logger)
			if store != nil {
				defer store.Close()
			}

			bus := events.New()
			defer bus.Close()
			recorder := metrics.New()
			detach := recorder.Attach(bus)
			defer detach()
			unnotify := notifications.Attach(bus, notifications.NewService(cfg), logger)
			defer unnotify()

			ctrl := compress.NewController(eng,
				compress.WithPublisher(bus),
				compress.WithLogger(logger),
				compress.WithStagingDir(cfg.Paths.StagingDir),
				compress.WithDefaultPreset(budget.PresetID(cfg.Compress.DefaultPreset)),
				compress.WithKeepStaging(cfg.Compress.KeepStaging),
			)

			d, err := daemon.New(cfg, daemon.Deps{
				Controller: ctrl,
				Bus:        bus,
				Metrics:    recorder,
				ProbeCache: store,
				Logger:     logger,
			})
			if err != nil {
				return err
			}
			if err := d.Start(runCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "squeeze API listening on http://%s\n", d.Addr())
			if cfg.Server.APIToken == "" {
				logging.WarnWithContext(logger, "API token not set", "api_unauthenticated",
					logging.String(logging.FieldImpact, "anyone who can reach the bind address can start jobs"),
				)
			}

			<-runCtx.Done()
			logger.Info("shutdown signal received")
			return d.Close()
		},
	}

	cmd.Flags().StringVar(&bindFlag, "bind", "", "Override the configured bind address")
	return cmd
}

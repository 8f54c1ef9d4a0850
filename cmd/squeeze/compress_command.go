package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squeeze/internal/budget"
	"squeeze/internal/compress"
	"squeeze/internal/config"
	"squeeze/internal/daemon"
	"squeeze/internal/events"
	"squeeze/internal/fileutil"
	"squeeze/internal/logging"
	"squeeze/internal/notifications"
	"squeeze/internal/preflight"
)

const (
	cancelTimeout = 10 * time.Second
	notifyTimeout = 15 * time.Second
)

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var presetFlag string
	var outputFlag string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "compress <file|url>",
		Short: "Compress a video to fit a preset's size budget",
		Long: `Compress a local file or http(s) URL into a 1280px wide, 24fps MP4 whose
size stays within the chosen preset's budget. Ctrl-C cancels the running job.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.session()
			if err != nil {
				return err
			}

			src, err := parseSourceArg(args[0])
			if err != nil {
				return fmt.Errorf("resolve source: %w", err)
			}
			if err := preflight.Collect(cmd.Context(), cfg).Err(); err != nil {
				return err
			}

			lock, err := daemon.AcquireLock(cfg.LockPath())
			if err != nil {
				if errors.Is(err, daemon.ErrLocked) {
					return fmt.Errorf("%w; wait for it to finish or stop `squeeze serve`", err)
				}
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					logger.Warn("failed to release lock", logging.Error(err))
				}
			}()

			runCtx := cmd.Context()

			eng, store := buildEngine(runCtx, cfg, logger)
			if store != nil {
				defer store.Close()
			}

			bus := events.New()
			defer bus.Close()
			progress := newProgressRenderer(cmd.ErrOrStderr(), logger)
			detach := progress.attach(bus)
			defer detach()

			ctrl := compress.NewController(eng,
				compress.WithPublisher(bus),
				compress.WithLogger(logger),
				compress.WithStagingDir(cfg.Paths.StagingDir),
				compress.WithDefaultPreset(budget.PresetID(cfg.Compress.DefaultPreset)),
				compress.WithKeepStaging(cfg.Compress.KeepStaging),
			)

			job, err := ctrl.Start(runCtx, src, presetFlag)
			if err != nil {
				return err
			}

			select {
			case <-job.Done():
			case <-runCtx.Done():
				cancelCtx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
				if err := ctrl.Cancel(cancelCtx); err != nil {
					logging.WarnWithContext(logger, "job did not stop cleanly", "cancel_failed",
						logging.Uint64(logging.FieldJobID, job.ID),
						logging.Error(err),
					)
				}
				_, _ = job.Wait(cancelCtx)
				cancel()
			}

			snap := job.Snapshot()
			progress.finish(snap)
			notifier := notifications.NewService(cfg)

			switch snap.State {
			case compress.StateCompleted:
				if snap.Result == nil {
					return errors.New("compression finished without a result")
				}
				result := *snap.Result
				dest, err := resolveOutputPath(cfg, outputFlag, result.FileName)
				if err != nil {
					return err
				}
				if err := fileutil.MoveFile(result.Path, dest); err != nil {
					return fmt.Errorf("deliver output: %w", err)
				}
				result.Path = dest
				notifyOutcome(logger, notifier, snap, &result)
				if jsonOutput {
					return writeJSON(cmd, result)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderResult(snap, result))
				return nil
			case compress.StateFailed:
				notifyOutcome(logger, notifier, snap, nil)
				if snap.Failure != nil {
					return fmt.Errorf("compression failed (%s): %s", snap.Failure.Kind, snap.Failure.Message)
				}
				return errors.New("compression failed")
			default:
				fmt.Fprintln(cmd.ErrOrStderr(), "Compression cancelled")
				return context.Canceled
			}
		},
	}

	cmd.Flags().StringVarP(&presetFlag, "preset", "p", "", "Quality preset (low, medium, high)")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination file or directory")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	return cmd
}

// notifyOutcome delivers the job's outcome synchronously so the POST completes
// before the process exits.
func notifyOutcome(logger *slog.Logger, svc notifications.Service, snap compress.Snapshot, result *compress.Result) {
	if svc == nil || !svc.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	var err error
	switch {
	case result != nil:
		err = svc.NotifyJobCompleted(ctx, events.JobCompleted{
			JobID:            snap.ID,
			Path:             result.Path,
			FileName:         result.FileName,
			MimeType:         result.MimeType,
			OriginalSize:     result.OriginalSize,
			CompressedSize:   result.CompressedSize,
			CompressionRatio: result.CompressionRatio,
			BytesSaved:       result.BytesSaved,
			Elapsed:          result.Elapsed,
			At:               result.CompletedAt,
		})
	case snap.Failure != nil:
		now := time.Now()
		err = svc.NotifyJobFailed(ctx, events.JobFailed{
			JobID:   snap.ID,
			Kind:    snap.Failure.Kind,
			Message: snap.Failure.Message,
			Elapsed: now.Sub(snap.CreatedAt),
			At:      now,
		})
	default:
		return
	}
	if err != nil {
		logging.WarnWithContext(logger, "notification not delivered", "notify_failed",
			logging.Uint64(logging.FieldJobID, snap.ID),
			logging.Error(err),
		)
	}
}

// resolveOutputPath picks the delivery location. An existing directory
// receives the synthesized file name; anything else is taken as a file path.
func resolveOutputPath(cfg *config.Config, output, fileName string) (string, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return filepath.Join(cfg.Paths.OutputDir, fileName), nil
	}
	expanded, err := config.ExpandPath(output)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	if info, err := os.Stat(expanded); err == nil && info.IsDir() {
		return filepath.Join(expanded, fileName), nil
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return expanded, nil
}

func renderResult(snap compress.Snapshot, result compress.Result) string {
	saved := humanize.IBytes(uint64(absInt64(result.BytesSaved)))
	if result.BytesSaved < 0 {
		saved = "grew by " + saved
	}
	return renderFields([][2]string{
		{"Source", snap.Source},
		{"Preset", string(snap.Preset)},
		{"Original", humanize.IBytes(uint64(max(result.OriginalSize, 0)))},
		{"Compressed", humanize.IBytes(uint64(max(result.CompressedSize, 0)))},
		{"Ratio", fmt.Sprintf("%.1f%%", result.CompressionRatio)},
		{"Saved", saved},
		{"Elapsed", result.Elapsed.Round(time.Second).String()},
		{"Output", result.Path},
	})
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

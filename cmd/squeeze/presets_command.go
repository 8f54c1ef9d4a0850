package main

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squeeze/internal/budget"
)

type presetRow struct {
	ID                 budget.PresetID `json:"id"`
	Label              string          `json:"label"`
	Default            bool            `json:"default"`
	TargetSizeBytes    int64           `json:"target_size_bytes"`
	AudioBitrate       int64           `json:"audio_bitrate"`
	VideoBitrateFactor float64         `json:"video_bitrate_factor"`
	MaxDurationSeconds float64         `json:"max_duration_seconds"`
	Plan               *budget.Plan    `json:"plan,omitempty"`
	EstimatedSizeBytes int64           `json:"estimated_size_bytes,omitempty"`
	Error              string          `json:"error,omitempty"`
}

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	var duration float64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List quality presets and their size budgets",
		Long: `List the quality presets. With --duration, each row also shows the bitrate
plan and estimated payload size for a source of that many seconds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("duration") && (duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0)) {
				return fmt.Errorf("--duration must be a positive number of seconds, got %v", duration)
			}

			rows := buildPresetRows(cfg.Compress.DefaultPreset, duration)
			if jsonOutput {
				return writeJSON(cmd, rows)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPresetTable(rows, duration > 0))
			return nil
		},
	}

	cmd.Flags().Float64VarP(&duration, "duration", "d", 0, "Source duration in seconds to plan for")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print presets as JSON")
	return cmd
}

func buildPresetRows(defaultID string, duration float64) []presetRow {
	presets := budget.Presets()
	rows := make([]presetRow, 0, len(presets))
	for _, p := range presets {
		row := presetRow{
			ID:                 p.ID,
			Label:              p.Label(),
			Default:            string(p.ID) == defaultID,
			TargetSizeBytes:    p.TargetSizeBytes(),
			AudioBitrate:       p.AudioBitrate(),
			VideoBitrateFactor: p.VideoBitrateFactor,
			MaxDurationSeconds: budget.MaxFeasibleDuration(p),
		}
		if duration > 0 {
			plan, err := budget.CalculateFor(p, duration)
			if err != nil {
				row.Error = err.Error()
			} else {
				row.Plan = &plan
				row.EstimatedSizeBytes = budget.EstimatedSizeBytes(plan, duration)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func renderPresetTable(rows []presetRow, withPlan bool) string {
	headers := []string{"Preset", "Target", "Audio", "Video factor", "Max duration"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight}
	if withPlan {
		headers = append(headers, "Video", "Est. size", "Floored")
		aligns = append(aligns, alignRight, alignRight, alignLeft)
	}

	body := make([][]string, 0, len(rows))
	for _, r := range rows {
		name := r.Label
		if r.Default {
			name += " (default)"
		}
		line := []string{
			name,
			humanize.IBytes(uint64(r.TargetSizeBytes)),
			formatBitrate(r.AudioBitrate),
			fmt.Sprintf("%.2f", r.VideoBitrateFactor),
			formatSeconds(r.MaxDurationSeconds),
		}
		if withPlan {
			switch {
			case r.Plan != nil:
				line = append(line,
					formatBitrate(r.Plan.VideoBitrate),
					humanize.IBytes(uint64(r.EstimatedSizeBytes)),
					yesNo(r.Plan.Clamped),
				)
			case r.Error != "":
				line = append(line, "infeasible", "-", "-")
			}
		}
		body = append(body, line)
	}
	return renderTable(headers, body, aligns)
}

func formatBitrate(bps int64) string {
	return humanize.SIWithDigits(float64(bps), 1, "bps")
}

func formatSeconds(seconds float64) string {
	if math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return "unlimited"
	}
	return (time.Duration(seconds * float64(time.Second))).Round(time.Second).String()
}

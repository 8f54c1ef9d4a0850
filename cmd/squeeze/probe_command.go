package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"squeeze/internal/compress"
	"squeeze/internal/engine"
	"squeeze/internal/services"
)

type probeOutput struct {
	Source    string          `json:"source"`
	Supported bool            `json:"supported"`
	Metadata  engine.Metadata `json:"metadata"`
	Presets   []presetRow     `json:"presets,omitempty"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe <file|url>",
		Short: "Inspect a source and show the plan each preset would use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.session()
			if err != nil {
				return err
			}
			src, err := parseSourceArg(args[0])
			if err != nil {
				return fmt.Errorf("resolve source: %w", err)
			}

			eng, store := buildEngine(cmd.Context(), cfg, logger)
			if store != nil {
				defer store.Close()
			}
			meta, err := eng.Probe(cmd.Context(), src)
			if err != nil {
				return services.Wrap(services.ErrMetadata, "probe", "inspect source", "", err)
			}

			out := probeOutput{
				Source:    src.Name(),
				Supported: compress.IsSupportedExtension(src.Extension()),
				Metadata:  meta,
			}
			if meta.DurationSeconds > 0 {
				out.Presets = buildPresetRows(cfg.Compress.DefaultPreset, meta.DurationSeconds)
			}
			if jsonOutput {
				return writeJSON(cmd, out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, renderProbe(out))
			if len(out.Presets) > 0 {
				fmt.Fprintln(w, renderPresetTable(out.Presets, true))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print probe results as JSON")
	return cmd
}

func renderProbe(out probeOutput) string {
	meta := out.Metadata
	resolution := meta.Resolution()
	if resolution == "" {
		resolution = "-"
	}
	codec := meta.VideoCodec
	if !meta.HasVideo {
		codec = "none"
	}
	return renderFields([][2]string{
		{"Source", out.Source},
		{"Supported format", yesNo(out.Supported)},
		{"Size", humanize.IBytes(uint64(max(meta.SizeBytes, 0)))},
		{"Duration", formatSeconds(meta.DurationSeconds)},
		{"Resolution", resolution},
		{"Video codec", codec},
		{"Container", meta.FormatName},
	})
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"squeeze/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries and working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := preflight.Collect(cmd.Context(), cfg)
			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
				return report.Err()
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string
			lines = append(lines, renderSectionHeader("Binaries", colorize)...)
			lines = append(lines, binaryLines(report.Binaries, colorize)...)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			lines = append(lines, directoryLines(report.Directories, colorize)...)
			fmt.Fprintln(out, strings.Join(lines, "\n"))

			rows := make([][]string, 0, len(report.Binaries))
			for _, b := range report.Binaries {
				rows = append(rows, []string{b.Name, b.Command, dashIfEmpty(b.Path), dashIfEmpty(b.Version)})
			}
			fmt.Fprintln(out, renderTable([]string{"Binary", "Command", "Path", "Version"}, rows, nil))

			if err := report.Err(); err != nil {
				fmt.Fprintln(out, renderStatusLine("Summary", statusError, "not ready", colorize))
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Summary", statusOK, "ready", colorize))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

func dashIfEmpty(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

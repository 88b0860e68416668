// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/coursevault/internal/backup"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var (
		course   string
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one backup of all active courses",
		Long: `Run one backup: prune old run logs, consolidate the previous run's
exports into a bundle, prune old bundles, then export every active course.

Examples:
  # Back up every active course
  coursevault run

  # Back up a single course
  coursevault run --course MATH101

  # Machine-readable summary
  coursevault run --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.writeTextfile()

			summary, err := a.runner.Run(cmd.Context(), backup.RunOptions{CourseCode: course})
			if summary != nil {
				if perr := printSummary(cmd.OutOrStdout(), summary, jsonMode); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&course, "course", "", "only back up the course with this exact code")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "print the run summary as JSON")
	return cmd
}

func newPruneCmd(flags *globalFlags) *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Consolidate loose exports and apply retention without exporting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()
			defer a.writeTextfile()

			summary, err := a.runner.Housekeeping(cmd.Context())
			if summary != nil {
				if perr := printSummary(cmd.OutOrStdout(), summary, jsonMode); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonMode, "json", false, "print the run summary as JSON")
	return cmd
}

// printSummary writes the summary line, or indented JSON in json mode.
func printSummary(w io.Writer, summary *backup.Summary, jsonMode bool) error {
	if !jsonMode {
		if summary.HousekeepingOnly && summary.Status == backup.RunStatusCompleted {
			_, err := fmt.Fprintf(w, "Housekeeping finished. Log: %s\n", summary.LogFile)
			return err
		}
		_, err := fmt.Fprintln(w, summary.Line())
		return err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/tomtom215/coursevault/internal/backup"
)

// errNoRunRecorded is returned by status before the first run.
var errNoRunRecorded = errors.New("no backup run has been recorded yet")

func newStatusCmd(flags *globalFlags) *cobra.Command {
	var jsonMode bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the summary of the last backup run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			path := statusPath(cfg)
			summary, err := backup.ReadStatusFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w (%s not found)", errNoRunRecorded, path)
			}
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary, jsonMode)
		},
	}

	cmd.Flags().BoolVar(&jsonMode, "json", false, "print the stored summary as JSON")
	return cmd
}

// lastRunStatus serves the in-process summary, falling back to the status
// file written by an earlier process.
type lastRunStatus struct {
	runner *backup.Runner
	path   string
}

func (s lastRunStatus) LastSummary() *backup.Summary {
	if summary := s.runner.LastSummary(); summary != nil {
		return summary
	}
	summary, err := backup.ReadStatusFile(s.path)
	if err != nil {
		return nil
	}
	return summary
}

// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/coursevault/internal/backup"
	"github.com/tomtom215/coursevault/internal/source"
)

func newCandidatesCmd(flags *globalFlags) *cobra.Command {
	var (
		course   string
		jsonMode bool
	)

	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "List backup candidates from the configured source",
		Long: `List every course reported by the configured source in enumeration
order with its active flag. Inactive courses are listed but never exported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			src, err := source.Open(cmd.Context(), sourceConfig(cfg))
			if err != nil {
				return err
			}
			defer src.Close() //nolint:errcheck // read-only source

			candidates, err := src.ListCandidates(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list candidates: %w", err)
			}
			candidates = filterCandidates(candidates, course)

			return printCandidates(cmd.OutOrStdout(), candidates, jsonMode)
		},
	}

	cmd.Flags().StringVar(&course, "course", "", "only show the course with this exact code")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "print candidates as JSON")
	return cmd
}

// filterCandidates keeps exact code matches, active or not.
func filterCandidates(candidates []backup.Candidate, code string) []backup.Candidate {
	if code == "" {
		return candidates
	}
	var out []backup.Candidate
	for _, c := range candidates {
		if c.Code == code {
			out = append(out, c)
		}
	}
	return out
}

func printCandidates(w io.Writer, candidates []backup.Candidate, jsonMode bool) error {
	if jsonMode {
		if candidates == nil {
			candidates = []backup.Candidate{}
		}
		data, err := json.MarshalIndent(candidates, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode candidates: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tACTIVE")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%t\n", c.Code, c.Active)
	}
	return tw.Flush()
}

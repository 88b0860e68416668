// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/coursevault/internal/backup"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitConfig  = 2
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configFile string
	backupDir  string
	logDir     string
}

// configError marks errors caused by configuration or command line usage.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var cfgErr *configError
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	return exitFailure
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "coursevault",
		Short: "Course backup orchestration and retention",
		Long: `coursevault exports every active course through an external export
command, sweeps the exports into a dated zip bundle on the next run and keeps
a bounded number of bundles and run logs.

Each invocation writes one log file, backup_<timestamp>.log, to the log
directory and records its summary in last_run.json.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path")
	root.PersistentFlags().StringVar(&flags.backupDir, "backup-dir", "", "override backup directory")
	root.PersistentFlags().StringVar(&flags.logDir, "log-dir", "", "override log directory")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &configError{err: err}
	})

	root.AddCommand(
		newRunCmd(flags),
		newPruneCmd(flags),
		newScheduleCmd(flags),
		newCandidatesCmd(flags),
		newStatusCmd(flags),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command with signal-aware context and returns the
// process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, newRootCmd(), os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		var dirErr *backup.DirectoryError
		if errors.As(err, &dirErr) {
			fmt.Fprintln(stderr, "The backup run was aborted before any course was exported.")
		}
	}
	return exitCode(err)
}

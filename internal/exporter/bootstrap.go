// Coursevault - Course Backup Orchestration and Retention
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coursevault

package exporter

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tomtom215/coursevault/internal/logging"
)

// CommandBootstrapper implements backup.Bootstrapper by running a command.
type CommandBootstrapper struct {
	cfg Config
}

// NewCommandBootstrapper creates a bootstrapper for cfg.
func NewCommandBootstrapper(cfg Config) (*CommandBootstrapper, error) {
	if strings.TrimSpace(cfg.Command) == "" {
		return nil, errors.New("bootstrap command is required")
	}
	return &CommandBootstrapper{cfg: cfg}, nil
}

// Bootstrap runs the command and fails on a non-zero exit status.
func (b *CommandBootstrapper) Bootstrap(ctx context.Context) error {
	//nolint:gosec // G204: command and arguments come from operator configuration
	cmd := exec.CommandContext(ctx, b.cfg.Command, b.cfg.Args...)
	cmd.Dir = b.cfg.WorkDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := lastLine(string(out)); msg != "" {
			return fmt.Errorf("bootstrap %s failed: %w: %s", b.cfg.Command, err, msg)
		}
		return fmt.Errorf("bootstrap %s failed: %w", b.cfg.Command, err)
	}

	logging.Info().Str("command", b.cfg.Command).Msg("Exporter environment bootstrapped")
	return nil
}

// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"fmt"
	"regexp"

	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/sanitize/runner"
	"github.com/stratastor/rodent/pkg/sanitize/types"
)

// notFrozen matches hdparm -I output confirming the security feature set is
// not frozen by the BIOS/controller (spec §4.6 hdparm mini-sequence, step 1).
var notFrozen = regexp.MustCompile(`not[\t ]*frozen`)

// hdparmSecurityErase accepts hdparm's documented 0-or-22 exception for
// --security-erase (spec §4.1).
func hdparmSecurityErase(exitCode int) bool {
	return exitCode == 0 || exitCode == 22
}

// dispatch runs one Execution's tool against devPath, appending every
// resulting Command Record to step. An unrecognized tool is
// SanitizeUnknownTool — fatal for the device, per spec §7.
func (o *Orchestrator) dispatch(ctx context.Context, step *types.StepRecord, exec types.Execution, devPath string) error {
	switch exec.Tool {
	case types.ToolShred:
		return o.dispatchShred(ctx, step, exec, devPath)
	case types.ToolBadblocks:
		return o.dispatchBadblocks(ctx, step, exec, devPath)
	case types.ToolNVMe:
		return o.dispatchNVMe(ctx, step, devPath)
	case types.ToolHdparm:
		return o.dispatchHdparm(ctx, step, devPath)
	default:
		return errors.New(errors.SanitizeUnknownTool, fmt.Sprintf("no dispatcher for tool %q", exec.Tool)).
			WithMetadata("device_path", devPath)
	}
}

func (o *Orchestrator) dispatchShred(ctx context.Context, step *types.StepRecord, exec types.Execution, devPath string) error {
	var cmd, description string
	if exec.Pattern == types.PatternZeros {
		cmd = fmt.Sprintf("shred --force --verbose --zero --iterations=0 %s", devPath)
		description = "shred (zero pattern)"
	} else {
		cmd = fmt.Sprintf("shred --force --verbose --iterations=1 %s", devPath)
		description = "shred (random pattern)"
	}

	progress := runner.LineCallback(func(line string) {
		o.logger.Info("shred progress", "device_path", devPath, "line", line)
	})

	rec, err := o.runner.Run(ctx, cmd, description, nil, progress)
	if err != nil {
		return err
	}
	step.Commands = append(step.Commands, rec)
	return nil
}

func (o *Orchestrator) dispatchBadblocks(ctx context.Context, step *types.StepRecord, exec types.Execution, devPath string) error {
	var cmd, description string
	if exec.Pattern == types.PatternZeros {
		cmd = fmt.Sprintf("badblocks -wv -p 1 -t 0 %s", devPath)
		description = "badblocks (zero pattern)"
	} else {
		cmd = fmt.Sprintf("badblocks -wv -p 1 -t random %s", devPath)
		description = "badblocks (random pattern)"
	}

	progress := runner.LineCallback(func(line string) {
		o.logger.Info("badblocks progress", "device_path", devPath, "line", line)
	})

	rec, err := o.runner.Run(ctx, cmd, description, nil, progress)
	if err != nil {
		return err
	}
	step.Commands = append(step.Commands, rec)
	return nil
}

func (o *Orchestrator) dispatchNVMe(ctx context.Context, step *types.StepRecord, devPath string) error {
	cmd := fmt.Sprintf("nvme format --ses=1 %s", devPath)
	rec, err := o.runner.Run(ctx, cmd, "nvme cryptographic format", nil, nil)
	if err != nil {
		return err
	}
	step.Commands = append(step.Commands, rec)
	return nil
}

// dispatchHdparm runs the four-command mini-sequence. Each prerequisite
// failure skips the remaining commands, but the commands already run stay
// on the step; the fourth, observational query always runs if the first
// three did.
func (o *Orchestrator) dispatchHdparm(ctx context.Context, step *types.StepRecord, devPath string) error {
	check := fmt.Sprintf("hdparm -I %s", devPath)
	rec, err := o.runner.Run(ctx, check, "hdparm: check frozen state", nil, nil)
	if err != nil {
		return err
	}
	step.Commands = append(step.Commands, rec)
	if !rec.Success || !notFrozen.MatchString(rec.Stdout) {
		o.logger.Warn("hdparm security feature set is frozen, skipping erase sequence", "device_path", devPath)
		return nil
	}

	setPass := fmt.Sprintf("hdparm --user-master u --security-set-pass Usody %s", devPath)
	rec, err = o.runner.Run(ctx, setPass, "hdparm: set security password", nil, nil)
	if err != nil {
		return err
	}
	step.Commands = append(step.Commands, rec)
	if !rec.Success {
		return nil
	}

	erase := fmt.Sprintf("hdparm --user-master --security-erase Usody %s", devPath)
	rec, err = o.runner.Run(ctx, erase, "hdparm: security erase", hdparmSecurityErase, nil)
	if err != nil {
		return err
	}
	step.Commands = append(step.Commands, rec)
	if !rec.Success {
		return nil
	}

	observe := fmt.Sprintf("hdparm -I %s", devPath)
	rec, err = o.runner.Run(ctx, observe, "hdparm: post-erase identify", nil, nil)
	if err != nil {
		return err
	}
	step.Commands = append(step.Commands, rec)

	return nil
}

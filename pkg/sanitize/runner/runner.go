// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package runner implements the Subprocess Runner: it spawns a shell
// command, captures stdout/stderr/exit-code, timestamps start and end, and
// optionally streams the process's stderr through a caller-supplied
// progress callback while the process runs.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/sanitize/types"
)

// ProgressCallback is handed a reference to the in-progress Command Record
// and the live stderr stream while the process is still running. It is
// advisory: it may log progress, and may pre-populate Stdout/Stderr on the
// record, in which case the Runner must not overwrite them.
type ProgressCallback func(record *types.CommandRecord, stderr io.Reader)

// SuccessRule overrides the default return_code == 0 rule for tools with
// documented exit-code exceptions (hdparm --security-erase, smartctl,
// lsblk). Given the numeric exit code, it reports whether the command
// counts as successful.
type SuccessRule func(exitCode int) bool

// DefaultSuccess is the return_code == 0 rule applied when no SuccessRule
// is supplied.
func DefaultSuccess(exitCode int) bool { return exitCode == 0 }

// Runner executes shell commands. A shell is always used (not a bare
// exec.Command) because the engine composes pipelines such as
// `dd ... | xxd -ps`.
type Runner struct {
	logger  logger.Logger
	useSudo bool
}

// New creates a Runner. useSudo, when true, prefixes every command with
// "sudo " — the overwriting and probe tools this engine drives
// (smartctl, hdparm, shred, badblocks, nvme, dd) universally require raw
// block device access.
func New(l logger.Logger, useSudo bool) *Runner {
	return &Runner{logger: l, useSudo: useSudo}
}

// Pipeline safely composes a shell pipeline from a sequence of argv
// slices, quoting each stage with shellquote the way
// pkg/zfs/dataset/data_transfer.go composes send|recv pipelines.
func Pipeline(stages ...[]string) string {
	parts := make([]string, len(stages))
	for i, stage := range stages {
		parts[i] = shellquote.Join(stage...)
	}
	return strings.Join(parts, " | ")
}

// Run spawns command through bash -c, capturing both streams fully. exit
// code and wall-clock timestamps are recorded on the returned Command
// Record. The Runner never retries and never returns a process-level error
// for a failed command — that is reported on the record itself, as is a
// process that could not be started; the returned error is reserved for a
// failure to set up the stdout/stderr pipes.
func (r *Runner) Run(ctx context.Context, command, description string, rule SuccessRule, progress ProgressCallback) (*types.CommandRecord, error) {
	if rule == nil {
		rule = DefaultSuccess
	}

	shellCmd := command
	if r.useSudo {
		shellCmd = "sudo " + command
	}

	record := types.NewCommandRecord(command, description)

	execCmd := exec.CommandContext(ctx, "bash", "-c", shellCmd)

	stdoutPipe, err := execCmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.CommandPipe)
	}
	stderrPipe, err := execCmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(err, errors.CommandPipe)
	}

	if err := execCmd.Start(); err != nil {
		record.Finish(-1, false, "", fmt.Sprintf("failed to start command: %v", err))
		return record, nil
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	done := make(chan struct{})

	go func() {
		defer close(done)
		io.Copy(&stdoutBuf, stdoutPipe)
	}()

	// The stderr side either streams line-by-line through progress (so
	// shred/badblocks's in-flight percentage doesn't buffer forever) or is
	// drained in one shot when no callback was supplied.
	stderrDone := make(chan struct{})
	if progress != nil {
		pr, pw := io.Pipe()
		go func() {
			defer close(stderrDone)
			progress(record, pr)
		}()
		go func() {
			defer pw.Close()
			io.Copy(io.MultiWriter(&stderrBuf, pw), stderrPipe)
		}()
	} else {
		go func() {
			defer close(stderrDone)
			io.Copy(&stderrBuf, stderrPipe)
		}()
	}

	select {
	case <-ctx.Done():
		_ = execCmd.Process.Kill()
		<-done
		<-stderrDone
		record.Finish(-1, false, stdoutBuf.String(), "command execution cancelled or timed out")
		return record, nil
	case <-done:
		<-stderrDone
		waitErr := execCmd.Wait()
		exitCode := 0
		if waitErr != nil {
			if exitErr, ok := waitErr.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				record.Finish(-1, false, stdoutBuf.String(), waitErr.Error())
				return record, nil
			}
		}
		record.Finish(exitCode, rule(exitCode), stdoutBuf.String(), stderrBuf.String())
		return record, nil
	}
}

// LineCallback adapts a per-line logging function into a ProgressCallback,
// the shape used by erasure helpers that just want to log shred/badblocks
// progress lines as they arrive (mirrors utils.print_shred_progress /
// utils.print_badblocks_progress in spirit).
func LineCallback(logFn func(line string)) ProgressCallback {
	return func(_ *types.CommandRecord, stderr io.Reader) {
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(scanCarriageOrNewline)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				logFn(line)
			}
		}
	}
}

// scanCarriageOrNewline splits on either \n or \r so progress meters that
// rewrite a line with \r (shred, badblocks) still produce discrete tokens.
func scanCarriageOrNewline(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\n' || b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

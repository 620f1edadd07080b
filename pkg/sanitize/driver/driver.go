// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package driver implements the Top-level Driver: device selection, the
// bulk confirmation prompt, and concurrent per-device orchestrator
// fan-out.
package driver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/sanitize/orchestrator"
	"github.com/stratastor/rodent/pkg/sanitize/probe"
	"github.com/stratastor/rodent/pkg/sanitize/types"
	"golang.org/x/sync/errgroup"
)

// structuralCodes are per-device errors that short-circuit only the
// offending device (spec §7): sibling devices continue, and the run as a
// whole still succeeds.
var structuralCodes = map[errors.ErrorCode]struct{}{
	errors.SanitizeDeviceNotFound:       {},
	errors.SanitizeMountedVolume:        {},
	errors.SanitizeInformationMismatch:  {},
	errors.SanitizeUnknownMedia:         {},
	errors.SanitizeUnknownTool:          {},
}

func isDeviceStructural(err error) bool {
	code, ok := errors.GetCode(err)
	if !ok {
		return false
	}
	_, structural := structuralCodes[code]
	return structural
}

// Driver ties device selection, confirmation, and orchestrator fan-out
// together for one invocation of the sanitize command.
type Driver struct {
	logger       logger.Logger
	prober       *probe.Prober
	orchestrator *orchestrator.Orchestrator

	confirm bool
	stdin   io.Reader
	stdout  io.Writer
}

// New creates a Driver. stdin/stdout default to os.Stdin/os.Stdout when
// nil — tests supply their own to script the confirmation prompt.
func New(l logger.Logger, p *probe.Prober, o *orchestrator.Orchestrator, confirm bool, stdin io.Reader, stdout io.Writer) *Driver {
	if stdin == nil {
		stdin = os.Stdin
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	return &Driver{logger: l, prober: p, orchestrator: o, confirm: confirm, stdin: stdin, stdout: stdout}
}

// SelectDevices resolves the -d/--device (repeatable) XOR -a/--all flags
// into a concrete device list. Exactly one of explicit/all must be set;
// the CLI layer enforces the mutual exclusion, this just resolves "all"
// via glob.
func SelectDevices(explicit []string, all bool) ([]string, error) {
	if all {
		return globDevices()
	}
	if len(explicit) == 0 {
		return nil, errors.New(errors.SanitizeNoDevicesSelected, "no devices selected: pass -d or -a")
	}
	return explicit, nil
}

func globDevices() ([]string, error) {
	var devices []string

	sata, err := filepath.Glob("/dev/sd?")
	if err != nil {
		return nil, errors.Wrap(err, errors.SanitizeNoDevicesSelected)
	}
	devices = append(devices, sata...)

	nvme, err := filepath.Glob("/dev/nvme?n?")
	if err != nil {
		return nil, errors.Wrap(err, errors.SanitizeNoDevicesSelected)
	}
	devices = append(devices, nvme...)

	sort.Strings(devices)
	return devices, nil
}

// Confirm prints the bulk confirmation prompt (path, model, serial, size
// for every selected device) and blocks for an ENTER keypress. It is a
// no-op when the driver was constructed with confirm=false. Cancellation
// of ctx while waiting (the CLI cancels it on Ctrl-C) and a read error
// (including EOF from a closed stdin) are both reported as
// SanitizeOperatorCancelled and must abort the run before any device is
// touched.
func (d *Driver) Confirm(ctx context.Context, devices []string) error {
	if !d.confirm {
		return nil
	}

	lines := make([]string, 0, len(devices))
	for _, dev := range devices {
		res, err := d.prober.Probe(ctx, dev)
		if err != nil {
			lines = append(lines, fmt.Sprintf(" - [Path: %s] [Error: %v]", dev, err))
			continue
		}
		lines = append(lines, fmt.Sprintf(" - [Path: %s] [Model: %s] [Serial: %s] [Size: %s]",
			res.DevPath, res.Model, res.Serial, humanSize(res.SizeBytes)))
	}

	prompt := fmt.Sprintf("The following devices will be wiped:\n\n%s\n\nPress ENTER to confirm or cancel with CTRL+C.\n",
		strings.Join(lines, "\n"))
	fmt.Fprint(d.stdout, prompt)

	readErr := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(d.stdin).ReadString('\n')
		readErr <- err
	}()

	select {
	case <-ctx.Done():
		return errors.New(errors.SanitizeOperatorCancelled, "operator cancelled the confirmation prompt")
	case err := <-readErr:
		if err != nil {
			return errors.New(errors.SanitizeOperatorCancelled, "operator cancelled the confirmation prompt")
		}
	}
	return nil
}

// Run launches one Orchestrator per device concurrently via errgroup and
// waits for all to finish. A structural per-device error is logged and
// that device simply produces no record; any other error aborts the whole
// group (a programming error, not a device fact). The returned slice
// contains one record per device that successfully emitted one, in no
// particular order.
func (d *Driver) Run(ctx context.Context, devices []string, method types.Method) ([]*types.SanitizeRecord, error) {
	records := make([]*types.SanitizeRecord, len(devices))

	g, gctx := errgroup.WithContext(ctx)
	for i, dev := range devices {
		i, dev := i, dev
		g.Go(func() error {
			rec, err := d.orchestrator.Run(gctx, dev, method)
			if err != nil {
				if isDeviceStructural(err) {
					d.logger.Warn("device sanitize aborted", "device_path", dev, "error", err)
					return nil
				}
				return err
			}
			records[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*types.SanitizeRecord, 0, len(devices))
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// humanSize renders bytes using binary-prefix units (K=1024, M=1024^2, …)
// with one decimal place, matching the confirmation prompt's "298.1G"
// style.
func humanSize(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	units := "KMGTPE"
	return fmt.Sprintf("%.1f%c", float64(n)/float64(div), units[exp])
}

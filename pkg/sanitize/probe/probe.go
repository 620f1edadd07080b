// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package probe implements the Device Probe: two synchronous inventory
// commands (smartctl -aj, lsblk -JOad) against a device path, parsed into
// typed records, reporting a typed not-found error if the device is
// absent.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/sanitize/runner"
)

// probeTimeout bounds each of the two synchronous probe commands (spec
// §4.2: "each with a 10-second timeout").
const probeTimeout = 10 * time.Second

// SmartctlJSON is the subset of `smartctl -aj` output this engine consults.
// Unknown fields are preserved via the raw payload on Result, not here.
type SmartctlJSON struct {
	Device struct {
		Name     string `json:"name"`
		InfoName string `json:"info_name"`
		Type     string `json:"type"`
		Protocol string `json:"protocol"`
	} `json:"device"`
	ModelName        string `json:"model_name"`
	SerialNumber     string `json:"serial_number"`
	LogicalBlockSize int    `json:"logical_block_size"`
	RotationRate     *int   `json:"rotation_rate"`
	UserCapacity     struct {
		Blocks uint64 `json:"blocks"`
		Bytes  uint64 `json:"bytes"`
	} `json:"user_capacity"`
	Smartctl struct {
		ExitStatus int `json:"exit_status"`
	} `json:"smartctl"`
}

// LsblkJSON is the subset of `lsblk -JOad` output this engine consults.
type LsblkJSON struct {
	BlockDevices []BlockDevice `json:"blockdevices"`
}

// BlockDevice mirrors one element of lsblk's blockdevices array.
type BlockDevice struct {
	Name       string  `json:"name"`
	Path       string  `json:"path"`
	Model      *string `json:"model"`
	Vendor     *string `json:"vendor"`
	Serial     *string `json:"serial"`
	Subsystems string  `json:"subsystems"`
	Rota       bool    `json:"rota"`
	Tran       *string `json:"tran"`
}

// Result is the Probe's output: the fields consulted by the Classifier and
// Orchestrator, plus the full raw payloads for archival in the certificate.
type Result struct {
	DevPath          string
	Manufacturer     string
	Model            string
	Serial           string
	Connector        string
	SizeBytes        uint64
	LogicalBlockSize int
	SmartRotationRate *int // nil if smartctl omitted it (e.g. NVMe)
	LsblkRota        bool
	KernelRotational *int // nil if /sys/block/<name>/queue/rotational is unreadable

	SmartRaw json.RawMessage
	LsblkRaw json.RawMessage
}

// Prober runs the two inventory commands through a Runner.
type Prober struct {
	logger logger.Logger
	runner *runner.Runner
}

// New creates a Prober.
func New(l logger.Logger, r *runner.Runner) *Prober {
	return &Prober{logger: l, runner: r}
}

// smartctlDeviceNotFound is smartctl's documented exit code for "no such
// device" (spec §4.1).
const smartctlDeviceNotFound = 2

// lsblkDeviceNotFound is lsblk's documented exit code for "no such device".
const lsblkDeviceNotFound = 32

// Probe runs smartctl -aj and lsblk -JOad sequentially against path, each
// bounded by a 10-second timeout, and returns the parsed Result or a typed
// SanitizeDeviceNotFound error.
func (p *Prober) Probe(ctx context.Context, path string) (*Result, error) {
	smartOut, err := p.runSmartctl(ctx, path)
	if err != nil {
		return nil, err
	}

	lsblkOut, err := p.runLsblk(ctx, path)
	if err != nil {
		return nil, err
	}

	var smart SmartctlJSON
	if err := json.Unmarshal(smartOut, &smart); err != nil {
		return nil, errors.Wrap(err, errors.SanitizeProbeParseFailed).
			WithMetadata("device_path", path).
			WithMetadata("source", "smartctl")
	}

	var lsblk LsblkJSON
	if err := json.Unmarshal(lsblkOut, &lsblk); err != nil {
		return nil, errors.Wrap(err, errors.SanitizeProbeParseFailed).
			WithMetadata("device_path", path).
			WithMetadata("source", "lsblk")
	}
	if len(lsblk.BlockDevices) == 0 {
		return nil, errors.New(errors.SanitizeDeviceNotFound, "lsblk returned no block devices").
			WithMetadata("device_path", path)
	}
	blk := lsblk.BlockDevices[0]

	result := &Result{
		DevPath:           path,
		Model:             firstNonEmpty(smart.ModelName, deref(blk.Model)),
		Serial:            firstNonEmpty(smart.SerialNumber, deref(blk.Serial)),
		Manufacturer:      deref(blk.Vendor),
		Connector:         connectorFromSubsystems(blk.Subsystems, blk.Tran),
		SizeBytes:         smart.UserCapacity.Bytes,
		LogicalBlockSize:  smart.LogicalBlockSize,
		SmartRotationRate: smart.RotationRate,
		LsblkRota:         blk.Rota,
		KernelRotational:  readKernelRotational(path),
		SmartRaw:          json.RawMessage(smartOut),
		LsblkRaw:          json.RawMessage(lsblkOut),
	}

	return result, nil
}

func (p *Prober) runSmartctl(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := runner.Pipeline([]string{"smartctl", "-aj", path})
	rec, err := p.runner.Run(ctx, cmd, "smartctl inventory", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.SanitizeProbeFailed).WithMetadata("device_path", path)
	}

	if rec.ReturnCode != nil && *rec.ReturnCode == smartctlDeviceNotFound {
		return nil, errors.New(errors.SanitizeDeviceNotFound, "smartctl: device not found").
			WithMetadata("device_path", path)
	}
	if !rec.Success {
		return nil, errors.New(errors.SanitizeProbeFailed, fmt.Sprintf("smartctl exited %v", rec.ReturnCode)).
			WithMetadata("device_path", path).
			WithMetadata("stderr", rec.Stderr)
	}

	return []byte(rec.Stdout), nil
}

func (p *Prober) runLsblk(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := runner.Pipeline([]string{"lsblk", "-JOad", path})
	rec, err := p.runner.Run(ctx, cmd, "lsblk inventory", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.SanitizeProbeFailed).WithMetadata("device_path", path)
	}

	if rec.ReturnCode != nil && *rec.ReturnCode == lsblkDeviceNotFound {
		return nil, errors.New(errors.SanitizeDeviceNotFound, "lsblk: device not found").
			WithMetadata("device_path", path)
	}
	if !rec.Success {
		return nil, errors.New(errors.SanitizeProbeFailed, fmt.Sprintf("lsblk exited %v", rec.ReturnCode)).
			WithMetadata("device_path", path).
			WithMetadata("stderr", rec.Stderr)
	}

	return []byte(rec.Stdout), nil
}

func readKernelRotational(devPath string) *int {
	name := filepath.Base(devPath)
	data, err := os.ReadFile(filepath.Join("/sys/block", name, "queue", "rotational"))
	if err != nil {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return nil
	}
	return &v
}

func connectorFromSubsystems(subsystems string, tran *string) string {
	if tran != nil && *tran != "" {
		return *tran
	}
	parts := strings.Split(subsystems, ":")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

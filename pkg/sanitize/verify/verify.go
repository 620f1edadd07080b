// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package verify implements the Verification Engine: the three-phase
// write-read-compare protocol that proves a device was writable before
// erasure and that the previously-observed bytes at a set of sampled
// sectors changed after erasure.
package verify

import (
	"context"
	"fmt"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/sanitize/runner"
	"github.com/stratastor/rodent/pkg/sanitize/types"
)

const redacted = "Private"

// Engine runs pre-verify and post-verify against one device through a
// Runner. It holds no per-device state: sector selection and results live
// entirely on the Validation Record passed in by the caller.
type Engine struct {
	logger logger.Logger
	runner *runner.Runner
}

// New creates a verification Engine.
func New(l logger.Logger, r *runner.Runner) *Engine {
	return &Engine{logger: l, runner: r}
}

// SampleSectors chooses K evenly-spaced sector indices across
// [0, maxSector), deduplicated and in ascending order, per the spacing
// formula index_i = floor(i*(maxSector-1)/(K-1)). When maxSector*blockSize
// leaves fewer than K distinct sectors the collapse is expected; callers
// get back however many unique indices result.
func SampleSectors(maxSector uint64, k int) []uint64 {
	if maxSector == 0 || k <= 0 {
		return nil
	}
	if k == 1 {
		return []uint64{0}
	}

	seen := make(map[uint64]struct{}, k)
	indices := make([]uint64, 0, k)
	for i := 0; i < k; i++ {
		idx := uint64(i) * (maxSector - 1) / uint64(k-1)
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		indices = append(indices, idx)
	}
	return indices
}

// zeroPattern reports whether method's first overwriting step writes the
// zero pattern, which selects /dev/zero as the pre-verify WRITE source
// instead of /dev/random.
func zeroPattern(m *types.Method) bool {
	if m == nil || len(m.OverwritingSteps) == 0 {
		return false
	}
	return m.OverwritingSteps[0].Pattern == types.PatternZeros
}

// PreVerify runs the READ, WRITE, READ-BACK passes over every sector in
// sectors, in that order, against devPath using logical block size bs. It
// appends every Command Record to validation.Commands, populates
// validation.Data, and sets validation.Result to pass only if all three
// passes complete without a failed command or a silently-ignored write. On
// the first failure it stops immediately, leaving the remaining passes
// un-run — the orchestrator must then skip overwriting and post-verify.
func (e *Engine) PreVerify(ctx context.Context, v *types.ValidationRecord, devPath string, bs uint64, sectors []uint64, method *types.Method) error {
	v.Result = types.ValidationUnknown

	// READ
	original := make(map[uint64]string, len(sectors))
	for _, s := range sectors {
		hex, rec, ok := e.read(ctx, devPath, bs, s)
		v.Commands = append(v.Commands, rec)
		if !ok {
			v.Result = types.ValidationFail
			v.Data = make(map[int]string)
			return nil
		}
		original[s] = hex
		v.Data[int(s)] = hex
		rec.Stdout = redacted
	}

	// WRITE
	writeSource := "/dev/random"
	if zeroPattern(method) {
		writeSource = "/dev/zero"
	}
	for _, s := range sectors {
		cmd := fmt.Sprintf("dd if=%s of=%s bs=%d count=1 seek=%d", writeSource, devPath, bs, s)
		rec, err := e.runner.Run(ctx, cmd, "pre-verify write", nil, nil)
		if err != nil {
			return err
		}
		v.Commands = append(v.Commands, rec)
		if !rec.Success {
			v.Result = types.ValidationFail
			return nil
		}
	}

	// READ-BACK
	for _, s := range sectors {
		hex, rec, ok := e.read(ctx, devPath, bs, s)
		v.Commands = append(v.Commands, rec)
		if !ok {
			v.Result = types.ValidationFail
			return nil
		}
		if hex == original[s] {
			e.logger.Warn("pre-verify write silently ignored", "device_path", devPath, "sector", s)
			v.Result = types.ValidationFail
			rec.Stdout = redacted
			return nil
		}
		v.Data[int(s)] = hex
		rec.Stdout = redacted
	}

	v.Result = types.ValidationPass
	return nil
}

// PostVerify re-reads every sector recorded in validation.Data and compares
// against the stored bytes. Any match means the overwriting steps did not
// actually touch that sector; the engine returns immediately with
// validation.Result = fail. Otherwise validation.Result = pass.
func (e *Engine) PostVerify(ctx context.Context, v *types.ValidationRecord, devPath string, bs uint64) error {
	for sector, stored := range v.Data {
		hex, rec, ok := e.read(ctx, devPath, bs, uint64(sector))
		v.Commands = append(v.Commands, rec)
		if !ok {
			v.Result = types.ValidationFail
			return nil
		}
		if hex == stored {
			e.logger.Warn("post-verify sector unchanged after erase", "device_path", devPath, "sector", sector)
			v.Result = types.ValidationFail
			rec.Stdout = redacted
			return nil
		}
		rec.Stdout = redacted
	}

	v.Result = types.ValidationPass
	return nil
}

// read runs the READ pipeline (dd ... | xxd -ps) for one sector, returning
// the hex stdout, the Command Record (not yet redacted), and whether it
// succeeded.
func (e *Engine) read(ctx context.Context, devPath string, bs, sector uint64) (string, *types.CommandRecord, bool) {
	cmd := runner.Pipeline(
		[]string{"dd", fmt.Sprintf("if=%s", devPath), fmt.Sprintf("bs=%d", bs), "count=1", fmt.Sprintf("skip=%d", sector)},
		[]string{"xxd", "-ps"},
	)
	rec, err := e.runner.Run(ctx, cmd, "pre/post-verify read", nil, nil)
	if err != nil || !rec.Success {
		return "", rec, false
	}
	return rec.Stdout, rec, true
}

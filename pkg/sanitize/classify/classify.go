// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package classify implements the Media Classifier: it consumes the probe
// output and the system-reported rotational flag to tag a device as HDD,
// SSD, or NVMe.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/sanitize/probe"
	"github.com/stratastor/rodent/pkg/sanitize/types"
)

// Classifier applies the rule set from spec §4.3. It holds only a logger —
// classification is a pure function of the probe Result, run fresh for
// each device (idempotent: calling Classify twice on the same Result
// yields the same class).
type Classifier struct {
	logger logger.Logger
}

// New creates a Classifier.
func New(l logger.Logger) *Classifier {
	return &Classifier{logger: l}
}

// Classify returns the storage medium for the probed device, logging a
// warning whenever the kernel rotational flag, SMART rotation_rate, and
// lsblk rota disagree — but never silently upgrading or downgrading the
// verdict based on that disagreement.
func (c *Classifier) Classify(r *probe.Result) types.StorageMedium {
	rotation := r.LsblkRota
	if r.KernelRotational != nil {
		rotation = *r.KernelRotational != 0
	}

	var medium types.StorageMedium
	switch {
	case r.SmartRotationRate != nil && *r.SmartRotationRate == 0:
		medium = types.MediumSSD
	case r.SmartRotationRate == nil:
		if rotation {
			medium = types.MediumHDD
		} else {
			medium = types.MediumSSD
		}
	default:
		medium = types.MediumHDD
	}

	if medium == types.MediumSSD && strings.HasPrefix(filepath.Base(r.DevPath), "nvme") {
		medium = types.MediumNVMe
	}

	c.warnOnDisagreement(r, rotation, medium)

	return medium
}

func (c *Classifier) warnOnDisagreement(r *probe.Result, kernelRotation bool, medium types.StorageMedium) {
	smartRotation := kernelRotation
	smartKnown := r.SmartRotationRate != nil
	if smartKnown {
		smartRotation = *r.SmartRotationRate != 0
	}

	if smartKnown && (kernelRotation != smartRotation || kernelRotation != r.LsblkRota) {
		c.logger.Warn("media classification signals disagree",
			"device_path", r.DevPath,
			"kernel_rotational", kernelRotation,
			"lsblk_rota", r.LsblkRota,
			"smart_rotation_rate", *r.SmartRotationRate,
			"classified_as", medium)
	}
}

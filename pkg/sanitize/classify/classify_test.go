// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"testing"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/sanitize/probe"
	"github.com/stratastor/rodent/pkg/sanitize/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "classify-test")
	require.NoError(t, err)
	return l
}

func intPtr(v int) *int { return &v }

// TestClassify_Rules covers spec §4.3's rule chain: SMART's rotation_rate
// is authoritative when present (rule 1/3), the kernel's rotational flag
// breaks the tie when SMART omits it (rule 2, e.g. NVMe devices never
// report rotation_rate), and an NVMe-shaped device path promotes an
// SSD verdict to NVMe (rule 4).
func TestClassify_Rules(t *testing.T) {
	cases := []struct {
		name   string
		result *probe.Result
		want   types.StorageMedium
	}{
		{
			name:   "smart rotation_rate zero is SSD",
			result: &probe.Result{DevPath: "/dev/sda", SmartRotationRate: intPtr(0), LsblkRota: false},
			want:   types.MediumSSD,
		},
		{
			name:   "smart rotation_rate nonzero is HDD",
			result: &probe.Result{DevPath: "/dev/sda", SmartRotationRate: intPtr(7200), LsblkRota: true},
			want:   types.MediumHDD,
		},
		{
			name:   "smart omitted, kernel rotational true falls back to HDD",
			result: &probe.Result{DevPath: "/dev/sda", SmartRotationRate: nil, KernelRotational: intPtr(1), LsblkRota: false},
			want:   types.MediumHDD,
		},
		{
			name:   "smart omitted, kernel rotational false falls back to SSD",
			result: &probe.Result{DevPath: "/dev/nvme0n1", SmartRotationRate: nil, KernelRotational: intPtr(0), LsblkRota: false},
			want:   types.MediumNVMe, // SSD verdict + nvme-shaped path promotes to NVMe
		},
		{
			name:   "smart and kernel both omitted, lsblk rota true falls back to HDD",
			result: &probe.Result{DevPath: "/dev/sda", SmartRotationRate: nil, KernelRotational: nil, LsblkRota: true},
			want:   types.MediumHDD,
		},
		{
			name:   "smart and kernel both omitted, lsblk rota false falls back to SSD",
			result: &probe.Result{DevPath: "/dev/sda", SmartRotationRate: nil, KernelRotational: nil, LsblkRota: false},
			want:   types.MediumSSD,
		},
		{
			name:   "SSD verdict on an nvme-shaped device path is promoted to NVMe",
			result: &probe.Result{DevPath: "/dev/nvme1n1", SmartRotationRate: intPtr(0), LsblkRota: false},
			want:   types.MediumNVMe,
		},
		{
			name:   "HDD verdict on an nvme-shaped device path is left alone",
			result: &probe.Result{DevPath: "/dev/nvme1n1", SmartRotationRate: intPtr(5400), LsblkRota: true},
			want:   types.MediumHDD,
		},
	}

	c := New(testLogger(t))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.result))
		})
	}
}

// TestClassify_DisagreementNeverOverridesVerdict exercises the
// warnOnDisagreement branch: when the kernel rotational flag, SMART
// rotation_rate, and lsblk rota disagree, Classify still logs and returns
// the SMART-driven verdict rather than silently upgrading/downgrading it.
func TestClassify_DisagreementNeverOverridesVerdict(t *testing.T) {
	c := New(testLogger(t))

	result := &probe.Result{
		DevPath:           "/dev/sdz",
		SmartRotationRate: intPtr(0), // SMART says SSD
		KernelRotational:  intPtr(1), // kernel disagrees: says rotational
		LsblkRota:         true,      // lsblk also disagrees
	}

	assert.Equal(t, types.MediumSSD, c.Classify(result), "SMART's verdict wins even when kernel/lsblk disagree")
}

func TestClassify_IdempotentOnSameResult(t *testing.T) {
	c := New(testLogger(t))
	result := &probe.Result{DevPath: "/dev/sda", SmartRotationRate: intPtr(7200), LsblkRota: true}

	first := c.Classify(result)
	second := c.Classify(result)
	assert.Equal(t, first, second)
}

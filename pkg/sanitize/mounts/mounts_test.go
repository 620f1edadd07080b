// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package mounts

import (
	"context"
	"testing"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/sanitize/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "mounts-test")
	require.NoError(t, err)
	return l
}

func TestParseDF_SkipsPseudoFilesystemsAndHeader(t *testing.T) {
	output := "Filesystem      Type\n" +
		"/dev/sda1       ext4\n" +
		"tmpfs           tmpfs\n" +
		"/dev/mapper/vg0 xfs\n" +
		"overlay         overlay\n" +
		"proc            proc\n"

	got := parseDF(output)
	assert.Equal(t, []string{"/dev/sda1", "/dev/mapper/vg0"}, got)
}

func TestParseDF_EmptyOutput(t *testing.T) {
	assert.Empty(t, parseDF(""))
	assert.Empty(t, parseDF("Filesystem Type\n"))
}

func TestIsMounted_PrefixMatch(t *testing.T) {
	r := runner.New(testLogger(t), false)
	c := New(testLogger(t), r)

	// Pre-seed the cache directly to avoid depending on the host's real
	// mount table inside a test environment.
	c.sources = []string{"/dev/sda1", "/dev/nvme0n1p2"}
	c.loadedAt = time.Now()

	mounted, err := c.IsMounted(context.Background(), "/dev/sda")
	require.NoError(t, err)
	assert.True(t, mounted)

	mounted, err = c.IsMounted(context.Background(), "/dev/sdb")
	require.NoError(t, err)
	assert.False(t, mounted)
}

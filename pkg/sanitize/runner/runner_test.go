// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "runner-test")
	require.NoError(t, err)
	return l
}

func TestRun_Success(t *testing.T) {
	r := New(testLogger(t), false)

	rec, err := r.Run(context.Background(), "echo -n hello", "say hello", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "hello", rec.Stdout)
	assert.True(t, rec.Success)
	require.NotNil(t, rec.ReturnCode)
	assert.Equal(t, 0, *rec.ReturnCode)
	assert.GreaterOrEqual(t, rec.EndTime, rec.StartTime)
}

func TestRun_NonZeroExit(t *testing.T) {
	r := New(testLogger(t), false)

	rec, err := r.Run(context.Background(), "exit 1", "fail on purpose", nil, nil)
	require.NoError(t, err)

	assert.False(t, rec.Success)
	require.NotNil(t, rec.ReturnCode)
	assert.Equal(t, 1, *rec.ReturnCode)
}

func TestRun_SuccessRuleException(t *testing.T) {
	r := New(testLogger(t), false)

	hdparmSecurityErase := func(exitCode int) bool { return exitCode == 0 || exitCode == 22 }

	rec, err := r.Run(context.Background(), "exit 22", "hdparm security-erase exception", hdparmSecurityErase, nil)
	require.NoError(t, err)

	assert.True(t, rec.Success)
	assert.Equal(t, 22, *rec.ReturnCode)
}

func TestRun_ContextTimeout(t *testing.T) {
	r := New(testLogger(t), false)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	rec, err := r.Run(ctx, "sleep 5", "oversleep", nil, nil)
	require.NoError(t, err)

	assert.False(t, rec.Success)
}

func TestRun_ProgressCallbackSeesStderr(t *testing.T) {
	r := New(testLogger(t), false)

	var lines []string
	cb := LineCallback(func(line string) {
		lines = append(lines, line)
	})

	rec, err := r.Run(context.Background(), "echo one 1>&2; echo two 1>&2", "progress", nil, cb)
	require.NoError(t, err)

	assert.True(t, rec.Success)
	assert.ElementsMatch(t, []string{"one", "two"}, lines)
}

func TestPipeline_QuotesEachStage(t *testing.T) {
	cmd := Pipeline(
		[]string{"dd", "if=/dev/sda", "bs=512", "count=1", "skip=0"},
		[]string{"xxd", "-ps"},
	)
	assert.Equal(t, "dd if=/dev/sda bs=512 count=1 skip=0 | xxd -ps", cmd)
}

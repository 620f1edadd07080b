// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/sanitize/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()
	l, err := logger.NewTag(logger.Config{LogLevel: "debug"}, "probe-test")
	require.NoError(t, err)
	return l
}

// writeScript drops an executable shell script named name into dir,
// following the fake-binary-on-PATH pattern used for sensor/tool wrappers
// elsewhere in the retrieval pack.
func writeScript(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0700))
}

func newTestProber(t *testing.T) *Prober {
	t.Helper()
	r := runner.New(testLogger(t), false)
	return New(testLogger(t), r)
}

const smartctlOK = `#!/bin/sh
cat <<'EOF'
{"device":{"name":"sda","type":"sat"},"model_name":"Barracuda","serial_number":"S123","logical_block_size":512,"rotation_rate":7200,"user_capacity":{"blocks":625142448,"bytes":320072933376},"smartctl":{"exit_status":0}}
EOF
`

const lsblkOK = `#!/bin/sh
cat <<'EOF'
{"blockdevices":[{"name":"sda","path":"/dev/sda","model":"Barracuda","vendor":"Seagate","serial":"S123","subsystems":"block:scsi:pci","rota":true,"tran":"sata"}]}
EOF
`

// TestProbe_SmartctlDeviceNotFound covers smartctl's documented exit code 2
// for "no such device" (spec §4.1): Probe must translate it into a typed
// SanitizeDeviceNotFound error rather than a generic probe failure.
func TestProbe_SmartctlDeviceNotFound(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "smartctl", "#!/bin/sh\nexit 2\n")
	writeScript(t, dir, "lsblk", "#!/bin/sh\necho should-not-run\nexit 1\n")
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	p := newTestProber(t)
	result, err := p.Probe(context.Background(), "/dev/does-not-exist")
	require.Error(t, err)
	assert.Nil(t, result)

	code, ok := errors.GetCode(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorCode(errors.SanitizeDeviceNotFound), code)
}

// TestProbe_LsblkDeviceNotFound covers lsblk's documented exit code 32 for
// "no such device". smartctl succeeds first, then lsblk's exit code alone
// drives the translation.
func TestProbe_LsblkDeviceNotFound(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "smartctl", smartctlOK)
	writeScript(t, dir, "lsblk", "#!/bin/sh\nexit 32\n")
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	p := newTestProber(t)
	result, err := p.Probe(context.Background(), "/dev/does-not-exist")
	require.Error(t, err)
	assert.Nil(t, result)

	code, ok := errors.GetCode(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorCode(errors.SanitizeDeviceNotFound), code)
}

// TestProbe_SuccessParsesBothToolOutputs confirms the happy path: both
// tools exit 0 and their JSON is merged into one Result.
func TestProbe_SuccessParsesBothToolOutputs(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "smartctl", smartctlOK)
	writeScript(t, dir, "lsblk", lsblkOK)
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	p := newTestProber(t)
	result, err := p.Probe(context.Background(), "/dev/sda")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Barracuda", result.Model)
	assert.Equal(t, "S123", result.Serial)
	assert.Equal(t, "Seagate", result.Manufacturer)
	assert.Equal(t, "sata", result.Connector)
	assert.Equal(t, uint64(320072933376), result.SizeBytes)
	assert.Equal(t, 512, result.LogicalBlockSize)
	require.NotNil(t, result.SmartRotationRate)
	assert.Equal(t, 7200, *result.SmartRotationRate)
	assert.True(t, result.LsblkRota)
}

// TestProbe_SmartctlGenericFailure confirms a non-zero, non-2 smartctl exit
// is reported as a generic probe failure, not DeviceNotFound.
func TestProbe_SmartctlGenericFailure(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "smartctl", "#!/bin/sh\necho boom >&2\nexit 1\n")
	writeScript(t, dir, "lsblk", lsblkOK)
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	p := newTestProber(t)
	result, err := p.Probe(context.Background(), "/dev/sda")
	require.Error(t, err)
	assert.Nil(t, result)

	code, ok := errors.GetCode(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorCode(errors.SanitizeProbeFailed), code)
}

// TestProbe_LsblkNoBlockDevices covers the edge case where lsblk exits 0
// but reports an empty blockdevices array (spec §4.2 edge case).
func TestProbe_LsblkNoBlockDevices(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "smartctl", smartctlOK)
	writeScript(t, dir, "lsblk", "#!/bin/sh\necho '{\"blockdevices\":[]}'\n")
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	p := newTestProber(t)
	result, err := p.Probe(context.Background(), "/dev/sda")
	require.Error(t, err)
	assert.Nil(t, result)

	code, ok := errors.GetCode(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorCode(errors.SanitizeDeviceNotFound), code)
}

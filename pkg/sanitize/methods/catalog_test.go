// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package methods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/sanitize/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_CaseInsensitive(t *testing.T) {
	c := NewCatalog()

	for _, name := range []string{"basic", "BASIC", "Basic", " basic "} {
		t.Run(name, func(t *testing.T) {
			m, err := c.Lookup(name)
			require.NoError(t, err)
			assert.Equal(t, Basic, m.Name)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	c := NewCatalog()

	_, err := c.Lookup("bogus")
	require.Error(t, err)
	code, ok := errors.GetCode(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorCode(errors.SanitizeUnknownMethod), code)
}

func TestBuiltins_MatchSpec(t *testing.T) {
	c := NewCatalog()

	basic, err := c.Lookup(Basic)
	require.NoError(t, err)
	assert.True(t, basic.VerificationEnabled)
	require.Len(t, basic.OverwritingSteps, 1)
	assert.Equal(t, types.ToolShred, basic.OverwritingSteps[0].Tool)
	assert.Equal(t, types.PatternRandom, basic.OverwritingSteps[0].Pattern)

	baseline, err := c.Lookup(Baseline)
	require.NoError(t, err)
	assert.False(t, baseline.VerificationEnabled)
	assert.True(t, baseline.BadSectorsEnabled)
	require.Len(t, baseline.OverwritingSteps, 1)
	assert.Equal(t, types.ToolBadblocks, baseline.OverwritingSteps[0].Tool)

	enhanced, err := c.Lookup(Enhanced)
	require.NoError(t, err)
	assert.True(t, enhanced.VerificationEnabled)
	require.Len(t, enhanced.OverwritingSteps, 3)
	assert.Equal(t, types.ToolBadblocks, enhanced.OverwritingSteps[0].Tool)
	assert.Equal(t, types.ToolBadblocks, enhanced.OverwritingSteps[1].Tool)
	assert.Equal(t, types.ToolShred, enhanced.OverwritingSteps[2].Tool)
	assert.Equal(t, types.PatternZeros, enhanced.OverwritingSteps[2].Pattern)

	ata, err := c.Lookup(CryptographicATA)
	require.NoError(t, err)
	assert.False(t, ata.VerificationEnabled)
	require.Len(t, ata.OverwritingSteps, 1)
	assert.Equal(t, types.ToolHdparm, ata.OverwritingSteps[0].Tool)

	nvme, err := c.Lookup(CryptographicNVMe)
	require.NoError(t, err)
	assert.False(t, nvme.VerificationEnabled)
	require.Len(t, nvme.OverwritingSteps, 1)
	assert.Equal(t, types.ToolNVMe, nvme.OverwritingSteps[0].Tool)
}

func TestLookup_ReturnsIndependentCopies(t *testing.T) {
	c := NewCatalog()

	a, err := c.Lookup(Basic)
	require.NoError(t, err)
	a.Warnings = append(a.Warnings, "mutated")

	b, err := c.Lookup(Basic)
	require.NoError(t, err)
	assert.Empty(t, b.Warnings)
}

func TestLoadOverrides_AddsAndReplaces(t *testing.T) {
	c := NewCatalog()

	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	content := `
CUSTOM_WIPE:
  name: CUSTOM_WIPE
  standard: Site Local
  removalProcess: shred
  verificationEnabled: true
  overwritingSteps:
    - tool: shred
      pattern: zeros
BASIC:
  name: BASIC
  standard: Overridden Basic
  removalProcess: shred
  verificationEnabled: false
  overwritingSteps:
    - tool: shred
      pattern: zeros
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, c.LoadOverrides(path))

	custom, err := c.Lookup("custom_wipe")
	require.NoError(t, err)
	assert.Equal(t, "Site Local", custom.Standard)

	basic, err := c.Lookup(Basic)
	require.NoError(t, err)
	assert.Equal(t, "Overridden Basic", basic.Standard)
	assert.False(t, basic.VerificationEnabled)
}

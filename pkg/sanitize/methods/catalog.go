// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package methods is the Method Catalog: a static registry of named
// sanitize methods, each enumerating an ordered list of overwriting
// Executions, verification/bad-sector flags, and descriptive metadata.
package methods

import (
	"fmt"
	"os"
	"strings"

	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/sanitize/types"
	"gopkg.in/yaml.v3"
)

// Catalog names, grounded on original_source/usody_sanitize/methods.py.
const (
	Basic              = "BASIC"
	Baseline           = "BASELINE"
	Enhanced           = "ENHANCED"
	CryptographicATA   = "CRYPTOGRAPHIC_ATA"
	CryptographicNVMe  = "CRYPTOGRAPHIC_NVME"
)

var builtin = map[string]types.Method{
	Basic: {
		Name:                Basic,
		Standard:            "Usody Basic",
		Description:         "Single random-pattern overwrite with write-read verification.",
		RemovalProcess:      "shred",
		VerificationEnabled: true,
		BadSectorsEnabled:   false,
		OverwritingSteps: []types.Execution{
			{Tool: types.ToolShred, Pattern: types.PatternRandom},
		},
	},
	Baseline: {
		Name:                Baseline,
		Standard:            "Usody Baseline",
		Description:         "Single random-pattern overwrite via badblocks, bad-sector reporting enabled, no write-read verification.",
		RemovalProcess:      "badblocks",
		VerificationEnabled: false,
		BadSectorsEnabled:   true,
		OverwritingSteps: []types.Execution{
			{Tool: types.ToolBadblocks, Pattern: types.PatternRandom},
		},
	},
	Enhanced: {
		Name:                Enhanced,
		Standard:            "Usody Enhanced",
		Description:         "Two random-pattern overwrite passes via badblocks followed by a zero-pattern shred pass, with write-read verification.",
		RemovalProcess:      "badblocks,badblocks,shred",
		VerificationEnabled: true,
		BadSectorsEnabled:   true,
		OverwritingSteps: []types.Execution{
			{Tool: types.ToolBadblocks, Pattern: types.PatternRandom},
			{Tool: types.ToolBadblocks, Pattern: types.PatternRandom},
			{Tool: types.ToolShred, Pattern: types.PatternZeros},
		},
	},
	CryptographicATA: {
		Name:                CryptographicATA,
		Standard:            "ATA Security Erase",
		Description:         "Cryptographic erase via the ATA Security Feature Set (hdparm). No write-read verification: the device controller's own erase is trusted.",
		RemovalProcess:      "hdparm",
		VerificationEnabled: false,
		BadSectorsEnabled:   false,
		OverwritingSteps: []types.Execution{
			{Tool: types.ToolHdparm},
		},
	},
	CryptographicNVMe: {
		Name:                CryptographicNVMe,
		Standard:            "NVMe Format (cryptographic erase)",
		Description:         "Cryptographic erase via NVMe Format with secure-erase setting. No write-read verification.",
		RemovalProcess:      "nvme",
		VerificationEnabled: false,
		BadSectorsEnabled:   false,
		OverwritingSteps: []types.Execution{
			{Tool: types.ToolNVMe},
		},
	},
}

// Catalog is a lookup table of Methods, seeded with the five built-ins and
// optionally extended/overridden from a YAML file.
type Catalog struct {
	methods map[string]types.Method
}

// NewCatalog returns a Catalog containing only the built-in methods.
func NewCatalog() *Catalog {
	c := &Catalog{methods: make(map[string]types.Method, len(builtin))}
	for name, m := range builtin {
		c.methods[name] = m
	}
	return c
}

// LoadOverrides reads a YAML file of `name: Method` entries and merges them
// into the catalog, replacing any built-in of the same name and adding any
// new one — the mechanism for sites that need a non-standard method without
// recompiling the catalog.
func (c *Catalog) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ConfigLoadFailed).WithMetadata("path", path)
	}

	var overrides map[string]types.Method
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return errors.Wrap(err, errors.ConfigParseError).WithMetadata("path", path)
	}

	for name, m := range overrides {
		if m.Name == "" {
			m.Name = name
		}
		c.methods[strings.ToUpper(name)] = m
	}

	return nil
}

// Lookup returns a Method by case-insensitive name, or SanitizeUnknownMethod.
func (c *Catalog) Lookup(name string) (types.Method, error) {
	m, ok := c.methods[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return types.Method{}, errors.New(errors.SanitizeUnknownMethod, fmt.Sprintf("unknown method %q", name))
	}
	return m.Clone(), nil
}

// Names returns every registered method name.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	return names
}

// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package mounts implements the Mounted-Volume Cache: a process-wide,
// lazily-populated snapshot of currently-mounted device paths, consulted by
// the orchestrator so a sanitize run never touches a device still carrying
// a live filesystem.
package mounts

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stratastor/logger"
	"github.com/stratastor/rodent/pkg/errors"
	"github.com/stratastor/rodent/pkg/sanitize/runner"
)

// ttl is advisory: within it the cache does not see mounts or unmounts
// made after the snapshot was taken.
const ttl = 30 * time.Second

// pseudoFilesystems are excluded from the mount source list, mirroring
// df's own treatment of virtual filesystems that never correspond to a
// block device path.
var pseudoFilesystems = map[string]struct{}{
	"proc": {}, "sysfs": {}, "devtmpfs": {}, "devpts": {}, "tmpfs": {},
	"cgroup": {}, "cgroup2": {}, "overlay": {}, "squashfs": {}, "debugfs": {},
	"tracefs": {}, "mqueue": {}, "securityfs": {}, "pstore": {}, "bpf": {},
	"autofs": {}, "configfs": {}, "fusectl": {},
}

// Cache is process-wide and safe for concurrent reads from multiple
// orchestrators; a single Cache instance is shared across one driver run.
type Cache struct {
	logger logger.Logger
	runner *runner.Runner

	mu      sync.Mutex
	sources []string
	loadedAt time.Time
}

// New creates an empty Cache; it populates itself on first use.
func New(l logger.Logger, r *runner.Runner) *Cache {
	return &Cache{logger: l, runner: r}
}

// IsMounted reports whether devPath is a prefix of at least one currently
// mounted device source (spec §9: "treat membership as 'device path is a
// prefix of at least one mount source'" — this also catches a mounted
// partition, e.g. /dev/sda1, when the caller asks about the whole disk
// /dev/sda).
func (c *Cache) IsMounted(ctx context.Context, devPath string) (bool, error) {
	sources, err := c.snapshot(ctx)
	if err != nil {
		return false, err
	}
	for _, src := range sources {
		if strings.HasPrefix(src, devPath) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Cache) snapshot(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loadedAt.IsZero() && time.Since(c.loadedAt) < ttl {
		return c.sources, nil
	}

	cmd := "df --output=source,fstype --all -P"
	rec, err := c.runner.Run(ctx, cmd, "mounted-volume snapshot", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.SanitizeMountsProbeFailed)
	}
	if !rec.Success {
		return nil, errors.New(errors.SanitizeMountsProbeFailed, "df exited non-zero").
			WithMetadata("stderr", rec.Stderr)
	}

	c.sources = parseDF(rec.Stdout)
	c.loadedAt = time.Now()
	return c.sources, nil
}

// parseDF extracts device source paths from `df --output=source,fstype
// --all -P` output, skipping the header row and any pseudo-filesystem.
func parseDF(output string) []string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) <= 1 {
		return nil
	}

	sources := make([]string, 0, len(lines))
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		source, fstype := fields[0], fields[1]
		if !strings.HasPrefix(source, "/dev/") {
			continue
		}
		if _, isPseudo := pseudoFilesystems[fstype]; isPseudo {
			continue
		}
		sources = append(sources, source)
	}
	return sources
}

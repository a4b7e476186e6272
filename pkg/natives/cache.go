// SPDX-License-Identifier: Apache-2.0
// Package natives extracts platform binaries into per-launch session directories.
package natives

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/craftlaunch/pkg/descriptor"
	"github.com/provide-io/craftlaunch/pkg/lockfile"
)

// DefaultRetention is how long a session directory survives before reaping.
const DefaultRetention = 24 * time.Hour

// ownerFile records the PID of the game using a session.
const ownerFile = ".owner"

// ErrExtraction is wrapped by every Warning.
var ErrExtraction = errors.New("❌ native extraction failed")

// Warning is a non-fatal failure to extract one library.
type Warning struct {
	Library string
	Archive string
	Err     error
}

func (w Warning) Error() string {
	if w.Archive != "" {
		return fmt.Sprintf("%v: %s (%s): %v", ErrExtraction, w.Library, w.Archive, w.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrExtraction, w.Library, w.Err)
}

func (w Warning) Unwrap() []error {
	return []error{ErrExtraction, w.Err}
}

// Session is one launch's native directory.
type Session struct {
	ID        string
	Dir       string
	Extracted []string
	Warnings  []Warning
}

// Cache owns the shared root under which sessions are created.
type Cache struct {
	root      string
	retention time.Duration
	logger    hclog.Logger
	now       func() time.Time
}

// NewCache returns a cache rooted at root. A zero retention uses DefaultRetention.
func NewCache(root string, retention time.Duration, logger hclog.Logger) *Cache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Cache{
		root:      root,
		retention: retention,
		logger:    logger.Named("natives"),
		now:       time.Now,
	}
}

// Root returns the cache root.
func (c *Cache) Root() string {
	return c.root
}

// Materialize creates a fresh session and extracts every native library of d
// that applies in env. Only failure to create the session is an error;
// per-library problems are returned as Session.Warnings.
func (c *Cache) Materialize(d *descriptor.Descriptor, paths *descriptor.Paths, env descriptor.Environment) (*Session, error) {
	id := uuid.NewString()
	dir := filepath.Join(c.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create native session: %w", err)
	}
	s := &Session{ID: id, Dir: dir}
	c.logger.Debug("📁 Created native session", "dir", dir)

	x := &extractor{platform: env.Platform, dest: dir, logger: c.logger}
	nativeLibs := 0
	for i := range d.Libraries {
		lib := &d.Libraries[i]
		if !lib.Included(env) || !lib.IsNative(env.Platform) {
			continue
		}
		nativeLibs++

		files, archive, err := x.extractLibrary(lib, paths)
		s.Extracted = append(s.Extracted, files...)
		if err != nil {
			w := Warning{Library: lib.Name, Archive: archive, Err: err}
			c.logger.Warn("⚠️ Skipping native library", "library", lib.Name, "archive", archive, "error", err)
			s.Warnings = append(s.Warnings, w)
			continue
		}
	}

	if len(s.Extracted) == 0 {
		s.Extracted = append(s.Extracted, c.copyPreExtracted(d, paths, dir)...)
	}

	switch {
	case nativeLibs > 0 && len(s.Extracted) == 0:
		c.logger.Error("❌ No native files extracted, the game will likely fail to start",
			"libraries", nativeLibs, "session", dir)
	case len(s.Warnings) > 0:
		c.logger.Warn("⚠️ Native extraction incomplete",
			"extracted", len(s.Extracted), "failed", len(s.Warnings), "session", dir)
	default:
		c.logger.Info("🧩 Extracted natives", "files", len(s.Extracted), "libraries", nativeLibs, "session", dir)
	}

	if removed, err := c.Reap(id); err != nil {
		c.logger.Warn("⚠️ Failed to reap old native sessions", "error", err)
	} else if removed > 0 {
		c.logger.Debug("🧹 Reaped old native sessions", "count", removed)
	}
	return s, nil
}

// copyPreExtracted copies files from the first versions/<id>/natives
// directory along the lineage. Old installers ship natives that way.
func (c *Cache) copyPreExtracted(d *descriptor.Descriptor, paths *descriptor.Paths, dest string) []string {
	for _, id := range d.Lineage {
		src := paths.VersionNatives(id)
		entries, err := os.ReadDir(src)
		if err != nil {
			continue
		}
		var copied []string
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			target := filepath.Join(dest, e.Name())
			if _, err := os.Stat(target); err == nil {
				continue
			}
			if err := copyFile(filepath.Join(src, e.Name()), target); err != nil {
				c.logger.Warn("⚠️ Failed to copy pre-extracted native", "file", e.Name(), "error", err)
				continue
			}
			copied = append(copied, e.Name())
		}
		if len(copied) > 0 {
			c.logger.Info("📋 Copied pre-extracted natives", "from", src, "files", len(copied))
			return copied
		}
	}
	return nil
}

// MarkOwner records pid as the user of s so the reaper leaves it alone
// while that process lives.
func (c *Cache) MarkOwner(s *Session, pid int) error {
	if err := lockfile.WritePID(filepath.Join(s.Dir, ownerFile), pid); err != nil {
		return fmt.Errorf("failed to record session owner: %w", err)
	}
	return nil
}

// Reap deletes session directories older than the retention window, except
// keep and sessions whose recorded owner is still running.
func (c *Cache) Reap(keep string) (int, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := c.now().Add(-c.retention)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || e.Name() == keep {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		dir := filepath.Join(c.root, e.Name())
		if pid, err := lockfile.ReadPID(filepath.Join(dir, ownerFile)); err == nil && lockfile.ProcessAlive(pid) {
			c.logger.Trace("🔒 Keeping session of running game", "dir", dir, "pid", pid)
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			c.logger.Debug("⚠️ Failed to remove old session", "dir", dir, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

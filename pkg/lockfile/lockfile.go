// SPDX-License-Identifier: Apache-2.0
// Package lockfile provides PID-stamped lock and owner files so that
// concurrent launcher processes can share install and cache directories.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ErrTimeout is returned by Wait when the lock is still held at the deadline.
var ErrTimeout = errors.New("❌ timed out waiting for lock")

const pollInterval = 100 * time.Millisecond

// ReadPID returns the PID recorded in path.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid in %s: %w", path, err)
	}
	return pid, nil
}

// WritePID records pid in path, replacing any previous content.
func WritePID(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644)
}

// TryAcquire creates path exclusively and stamps it with our PID. A lock left
// behind by a dead process is removed first. It returns false without error
// when a live process holds the lock.
func TryAcquire(path string, logger hclog.Logger) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		logger.Debug("🔍 Lock file exists, checking if it's stale", "path", path)
		pid, err := ReadPID(path)
		switch {
		case err != nil:
			logger.Info("🧹 Removing unreadable lock file", "path", path)
			os.Remove(path)
		case !ProcessAlive(pid):
			logger.Info("🧹 Removing stale lock from dead process", "pid", pid)
			os.Remove(path)
		default:
			logger.Debug("🔒 Lock held by active process", "pid", pid)
			return false, nil
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			logger.Debug("🔒 Lost lock race", "path", path)
			return false, nil
		}
		return false, err
	}
	defer file.Close()

	pid := os.Getpid()
	if _, err := fmt.Fprintf(file, "%d\n", pid); err != nil {
		os.Remove(path)
		return false, err
	}

	logger.Debug("🔒 Acquired lock", "path", path, "pid", pid)
	return true, nil
}

// Release removes a lock acquired with TryAcquire.
func Release(path string, logger hclog.Logger) {
	if err := os.Remove(path); err != nil {
		logger.Debug("⚠️ Failed to remove lock file", "path", path, "error", err)
		return
	}
	logger.Debug("🔓 Released lock", "path", path)
}

// Wait blocks until path disappears, its holder dies, or ctx is done.
func Wait(ctx context.Context, path string, logger hclog.Logger) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for attempt := 0; ; attempt++ {
		pid, err := ReadPID(path)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && !ProcessAlive(pid)) {
			return nil
		}
		if attempt%50 == 0 {
			logger.Debug("⏳ Waiting for lock holder", "path", path, "pid", pid)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", ErrTimeout, path, ctx.Err())
		case <-ticker.C:
		}
	}
}

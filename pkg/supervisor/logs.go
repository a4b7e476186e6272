// SPDX-License-Identifier: Apache-2.0
package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TailLines is how much of the error stream a Failure carries.
const TailLines = 30

const (
	logsDir         = "logs"
	logTimeFormat   = "20060102_150405"
	maxNameAttempts = 1000
)

type logFiles struct {
	stdout, stderr         *os.File
	stdoutPath, stderrPath string
}

func (l *logFiles) close() {
	if l.stdout != nil {
		_ = l.stdout.Close()
	}
	if l.stderr != nil {
		_ = l.stderr.Close()
	}
}

func openLogs(instanceRoot string, at time.Time) (*logFiles, error) {
	dir := filepath.Join(instanceRoot, logsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	stamp := at.Format(logTimeFormat)

	l := &logFiles{}
	var err error
	if l.stdout, l.stdoutPath, err = createExclusive(dir, "launcher_stdout_"+stamp); err != nil {
		return nil, err
	}
	if l.stderr, l.stderrPath, err = createExclusive(dir, "launcher_stderr_"+stamp); err != nil {
		l.close()
		return nil, err
	}
	return l, nil
}

// createExclusive creates base.log, or base_N.log when that is taken.
func createExclusive(dir, base string) (*os.File, string, error) {
	for n := 0; n < maxNameAttempts; n++ {
		name := base + ".log"
		if n > 0 {
			name = fmt.Sprintf("%s_%d.log", base, n)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("failed to create log file: %w", err)
		}
	}
	return nil, "", fmt.Errorf("failed to create log file: no free name for %s", base)
}

// readTail returns the last n non-blank lines of path.
func readTail(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	}
	return ring, scanner.Err()
}

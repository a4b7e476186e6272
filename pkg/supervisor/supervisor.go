// SPDX-License-Identifier: Apache-2.0
// Package supervisor spawns a launch plan and checks that the game survives
// its first seconds.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/craftlaunch/pkg/argv"
	"github.com/provide-io/craftlaunch/pkg/plan"
)

// Default liveness windows.
const (
	DefaultFirstGrace  = 3 * time.Second
	DefaultSecondGrace = 5 * time.Second
)

// Outcome describes a child that was still alive after both checks. It is
// not supervised any further.
type Outcome struct {
	PID       int
	Process   *os.Process
	StdoutLog string
	StderrLog string
	StartedAt time.Time
}

// Supervisor spawns plans. The zero value is not usable; see New.
type Supervisor struct {
	FirstGrace  time.Duration
	SecondGrace time.Duration
	Env         EnvConfig
	Logger      hclog.Logger

	now     func() time.Time
	environ func() []string
}

// New returns a Supervisor with the default grace periods.
func New(logger hclog.Logger) *Supervisor {
	return &Supervisor{
		FirstGrace:  DefaultFirstGrace,
		SecondGrace: DefaultSecondGrace,
		Logger:      logger.Named("supervisor"),
		now:         time.Now,
		environ:     os.Environ,
	}
}

// Launch starts p in instanceRoot with output redirected to fresh log files,
// then waits out two grace periods. An exit inside either window is reported
// as a *Failure. Cancelling ctx stops the wait but never the child.
func (s *Supervisor) Launch(ctx context.Context, p *plan.LaunchPlan, instanceRoot string) (*Outcome, error) {
	logger := s.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	now := s.now
	if now == nil {
		now = time.Now
	}
	environ := s.environ
	if environ == nil {
		environ = os.Environ
	}

	started := now()
	logs, err := openLogs(instanceRoot, started)
	if err != nil {
		return nil, err
	}

	args := p.Args()
	cmd := exec.Command(p.Executable, args...)
	cmd.Dir = instanceRoot
	cmd.Env = buildEnv(environ(), s.Env, logger)
	cmd.Stdin = nil
	cmd.Stdout = logs.stdout
	cmd.Stderr = logs.stderr
	cmd.SysProcAttr = detachedAttrs()

	logger.Info("🚀 Spawning game process", "executable", p.Executable, "cwd", instanceRoot)
	logger.Debug("🎯 Command details", "argv", argv.Join(p.Redacted()))
	logger.Debug("📄 Output redirected", "stdout", logs.stdoutPath, "stderr", logs.stderrPath)

	if err := cmd.Start(); err != nil {
		logs.close()
		return nil, &Failure{
			Stage:     StageSpawn,
			ExitCode:  -1,
			StdoutLog: logs.stdoutPath,
			StderrLog: logs.stderrPath,
			Err:       err,
		}
	}
	// The child holds its own descriptors now.
	logs.close()

	pid := cmd.Process.Pid
	logger.Debug("🔍 Process started", "pid", pid)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	for _, check := range []struct {
		stage Stage
		grace time.Duration
	}{
		{StageFirst, s.FirstGrace},
		{StageSecond, s.SecondGrace},
	} {
		logger.Debug("⏳ Waiting for liveness check", "stage", check.stage, "grace", check.grace)
		timer := time.NewTimer(check.grace)
		select {
		case waitErr := <-done:
			timer.Stop()
			f := failure(check.stage, cmd, waitErr, logs, logger)
			logger.Error("💥 Game exited during liveness check",
				"stage", f.Stage, "pid", pid, "exit_code", f.ExitCode, "stderr", logs.stderrPath)
			for _, line := range f.StderrTail {
				logger.Debug("  stderr", "line", line)
			}
			return nil, f
		case <-ctx.Done():
			timer.Stop()
			logger.Warn("⚠️ Liveness wait cancelled, leaving process running", "pid", pid)
			return nil, fmt.Errorf("liveness check interrupted for pid %d: %w", pid, ctx.Err())
		case <-timer.C:
			logger.Debug("✅ Process alive", "stage", check.stage, "pid", pid)
		}
	}

	logger.Info("✅ Game process is running", "pid", pid)
	return &Outcome{
		PID:       pid,
		Process:   cmd.Process,
		StdoutLog: logs.stdoutPath,
		StderrLog: logs.stderrPath,
		StartedAt: started,
	}, nil
}

func failure(stage Stage, cmd *exec.Cmd, waitErr error, logs *logFiles, logger hclog.Logger) *Failure {
	code := -1
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		logger.Warn("⚠️ Wait returned an unexpected error", "error", waitErr)
	}

	tail, err := readTail(logs.stderrPath, TailLines)
	if err != nil {
		logger.Warn("⚠️ Could not read stderr log", "path", logs.stderrPath, "error", err)
	}
	return &Failure{
		Stage:      stage,
		ExitCode:   code,
		StderrTail: tail,
		StdoutLog:  logs.stdoutPath,
		StderrLog:  logs.stderrPath,
	}
}

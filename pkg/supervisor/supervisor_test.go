// SPDX-License-Identifier: Apache-2.0
//go:build !windows

package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/craftlaunch/pkg/plan"
)

func testSupervisor(first, second time.Duration) *Supervisor {
	s := New(hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Trace}))
	s.FirstGrace, s.SecondGrace = first, second
	return s
}

func shellPlan(script string) *plan.LaunchPlan {
	return &plan.LaunchPlan{Executable: "/bin/sh", JVMArgs: []string{"-c"}, MainClass: script}
}

func TestLaunch_EarlyExitIsFailure(t *testing.T) {
	root := t.TempDir()
	s := testSupervisor(2*time.Second, 2*time.Second)

	out, err := s.Launch(context.Background(), shellPlan("echo starting; echo 'Exception in thread main' >&2; exit 3"), root)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrEarlyExit)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, StageFirst, f.Stage)
	assert.Equal(t, 3, f.ExitCode)
	assert.Equal(t, []string{"Exception in thread main"}, f.StderrTail)

	stdout, err := os.ReadFile(f.StdoutLog)
	require.NoError(t, err)
	assert.Equal(t, "starting\n", string(stdout))
	assert.Equal(t, filepath.Join(root, "logs"), filepath.Dir(f.StderrLog))
}

func TestLaunch_ExitDuringSecondWindow(t *testing.T) {
	s := testSupervisor(100*time.Millisecond, 3*time.Second)

	_, err := s.Launch(context.Background(), shellPlan("sleep 1; exit 4"), t.TempDir())
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, StageSecond, f.Stage)
	assert.Equal(t, 4, f.ExitCode)
}

func TestLaunch_CleanExitStillFails(t *testing.T) {
	s := testSupervisor(2*time.Second, time.Second)

	_, err := s.Launch(context.Background(), shellPlan("exit 0"), t.TempDir())
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, 0, f.ExitCode)
	assert.Empty(t, f.StderrTail)
}

func TestLaunch_AliveAfterBothChecks(t *testing.T) {
	root := t.TempDir()
	s := testSupervisor(200*time.Millisecond, 200*time.Millisecond)
	s.Env = EnvConfig{Set: map[string]string{"CRAFTLAUNCH_PROBE": "yes"}}

	out, err := s.Launch(context.Background(), shellPlan(`echo "$CRAFTLAUNCH_PROBE $(pwd)"; exec sleep 10`), root)
	require.NoError(t, err)
	require.NotNil(t, out)
	t.Cleanup(func() { _ = out.Process.Kill() })

	assert.Positive(t, out.PID)
	assert.FileExists(t, out.StdoutLog)
	assert.FileExists(t, out.StderrLog)

	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		b, _ := os.ReadFile(out.StdoutLog)
		return string(b) == "yes "+realRoot+"\n"
	}, 2*time.Second, 50*time.Millisecond)
}

func TestLaunch_SpawnFailure(t *testing.T) {
	s := testSupervisor(time.Second, time.Second)
	p := &plan.LaunchPlan{Executable: filepath.Join(t.TempDir(), "no-such-java"), MainClass: "Main"}

	_, err := s.Launch(context.Background(), p, t.TempDir())
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, StageSpawn, f.Stage)
	assert.Error(t, f.Err)
}

func TestLaunch_ContextCancelled(t *testing.T) {
	s := testSupervisor(5*time.Second, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	root := t.TempDir()
	_, err := s.Launch(ctx, shellPlan("exec sleep 2"), root)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenLogs_CollisionSuffix(t *testing.T) {
	root := t.TempDir()
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	first, err := openLogs(root, at)
	require.NoError(t, err)
	first.close()
	second, err := openLogs(root, at)
	require.NoError(t, err)
	second.close()

	assert.Equal(t, "launcher_stdout_20240309_140507.log", filepath.Base(first.stdoutPath))
	assert.Equal(t, "launcher_stdout_20240309_140507_1.log", filepath.Base(second.stdoutPath))
	assert.Equal(t, "launcher_stderr_20240309_140507_1.log", filepath.Base(second.stderrPath))
}

func TestReadTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "err.log")
	var content string
	for i := 0; i < 40; i++ {
		content += "line " + string(rune('A'+i%26)) + "\n\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tail, err := readTail(path, TailLines)
	require.NoError(t, err)
	assert.Len(t, tail, TailLines)
	assert.Equal(t, "line K", tail[0])
	assert.Equal(t, "line N", tail[TailLines-1])
}

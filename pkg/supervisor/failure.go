// SPDX-License-Identifier: Apache-2.0
package supervisor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEarlyExit is wrapped by every Failure.
var ErrEarlyExit = errors.New("❌ game process did not stay alive")

// Stage names the point at which the process was found dead.
type Stage string

// Liveness stages.
const (
	StageSpawn  Stage = "spawn"
	StageFirst  Stage = "first check"
	StageSecond Stage = "second check"
)

// Failure reports a process that could not be started or exited early.
type Failure struct {
	Stage      Stage
	ExitCode   int
	StderrTail []string
	StdoutLog  string
	StderrLog  string
	Err        error
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v at %s", ErrEarlyExit, f.Stage)
	if f.Err != nil {
		fmt.Fprintf(&b, ": %v", f.Err)
	} else {
		fmt.Fprintf(&b, " (exit code %d)", f.ExitCode)
	}
	if n := len(f.StderrTail); n > 0 {
		fmt.Fprintf(&b, ": %s", f.StderrTail[n-1])
	}
	return b.String()
}

func (f *Failure) Unwrap() []error {
	if f.Err != nil {
		return []error{ErrEarlyExit, f.Err}
	}
	return []error{ErrEarlyExit}
}

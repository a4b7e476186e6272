// SPDX-License-Identifier: Apache-2.0
// Package plan assembles the argument vector for launching a resolved version.
package plan

import (
	"errors"
	"fmt"

	"github.com/provide-io/craftlaunch/pkg/argv"
)

// DefaultMemory is the maximum heap passed as -Xmx.
const DefaultMemory = "2G"

// DefaultJVMArgs are the collector settings placed after -Xmx.
var DefaultJVMArgs = []string{
	"-XX:+UnlockExperimentalVMOptions",
	"-XX:+UseG1GC",
	"-XX:G1NewSizePercent=20",
	"-XX:G1ReservePercent=20",
	"-XX:MaxGCPauseMillis=50",
	"-XX:G1HeapRegionSize=32M",
}

// Options are user-tunable parts of the plan.
type Options struct {
	Memory          string
	DefaultJVMArgs  []string
	ExtraJVMArgs    []string
	LauncherName    string
	LauncherVersion string
	Width           int
	Height          int
}

// LaunchPlan is the fully assembled command for one launch attempt.
type LaunchPlan struct {
	Executable string
	JVMArgs    []string
	MainClass  string
	GameArgs   []string

	Classpath  []string
	ModulePath []string
	Warnings   []string

	secrets []string
}

// Args returns the arguments after the executable.
func (p *LaunchPlan) Args() []string {
	args := make([]string, 0, len(p.JVMArgs)+1+len(p.GameArgs))
	args = append(args, p.JVMArgs...)
	args = append(args, p.MainClass)
	return append(args, p.GameArgs...)
}

// MainClassIndex returns the position of the entry class within Args.
func (p *LaunchPlan) MainClassIndex() int {
	return len(p.JVMArgs)
}

// Argv returns the executable followed by Args.
func (p *LaunchPlan) Argv() []string {
	return append([]string{p.Executable}, p.Args()...)
}

// Redacted returns Argv with secrets masked, safe for logs and display.
func (p *LaunchPlan) Redacted() []string {
	return argv.Redact(p.Argv(), p.secrets...)
}

// ErrBuild is wrapped by every BuildError.
var ErrBuild = errors.New("❌ launch plan rejected")

// Invariant names a property every launch plan must hold.
type Invariant string

// Plan invariants.
const (
	InvariantRuntime         Invariant = "runtime executable set"
	InvariantEntryClass      Invariant = "entry class present"
	InvariantPrimaryArchive  Invariant = "primary archive exists"
	InvariantModulePath      Invariant = "module path lists existing jars inside the library root"
	InvariantSingleClasspath Invariant = "exactly one classpath flag"
	InvariantClasspathValue  Invariant = "classpath value is non-empty and not a flag"
	InvariantGameBeforeEntry Invariant = "no game argument before the entry class"
	InvariantJVMAfterEntry   Invariant = "no JVM flag after the entry class"
)

// BuildError rejects a plan and names the invariant that failed.
type BuildError struct {
	Invariant Invariant
	Detail    string
}

func (e *BuildError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s", ErrBuild, e.Invariant)
	}
	return fmt.Sprintf("%v: %s: %s", ErrBuild, e.Invariant, e.Detail)
}

func (e *BuildError) Unwrap() error {
	return ErrBuild
}

func buildError(inv Invariant, format string, args ...any) *BuildError {
	return &BuildError{Invariant: inv, Detail: fmt.Sprintf(format, args...)}
}

// SPDX-License-Identifier: Apache-2.0
package engine

import (
	"errors"

	"github.com/provide-io/craftlaunch/pkg/credentials"
	"github.com/provide-io/craftlaunch/pkg/descriptor"
	"github.com/provide-io/craftlaunch/pkg/jvm"
	"github.com/provide-io/craftlaunch/pkg/plan"
	"github.com/provide-io/craftlaunch/pkg/supervisor"
)

// Exit codes for different error types
const (
	ExitOK                 = 0
	ExitPanic              = 101
	ExitDescriptorError    = 102
	ExitRuntimeUnavailable = 103
	ExitBuildError         = 104
	ExitProcessFailure     = 105
	ExitInvalidArgs        = 106
	ExitIOError            = 107
)

// ErrInvalidRequest is returned for requests missing required fields.
var ErrInvalidRequest = errors.New("❌ invalid launch request")

// Class names a failure category of a launch attempt.
type Class string

// Failure classes.
const (
	ClassNone               Class = ""
	ClassDescriptor         Class = "DescriptorError"
	ClassRuntimeUnavailable Class = "RuntimeUnavailable"
	ClassBuild              Class = "BuildError"
	ClassProcess            Class = "ProcessFailure"
	ClassInvalidInput       Class = "InvalidInput"
	ClassIO                 Class = "IOError"
)

// Classify maps err onto the failure taxonomy.
func Classify(err error) Class {
	var (
		descErr *descriptor.Error
		rtErr   *jvm.UnavailableError
		bErr    *plan.BuildError
		pErr    *supervisor.Failure
	)
	switch {
	case err == nil:
		return ClassNone
	case errors.As(err, &descErr):
		return ClassDescriptor
	case errors.As(err, &rtErr), errors.Is(err, jvm.ErrUnavailable):
		return ClassRuntimeUnavailable
	case errors.As(err, &bErr):
		return ClassBuild
	case errors.As(err, &pErr):
		return ClassProcess
	case errors.Is(err, credentials.ErrInvalid), errors.Is(err, ErrInvalidRequest):
		return ClassInvalidInput
	default:
		return ClassIO
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	switch Classify(err) {
	case ClassNone:
		return ExitOK
	case ClassDescriptor:
		return ExitDescriptorError
	case ClassRuntimeUnavailable:
		return ExitRuntimeUnavailable
	case ClassBuild:
		return ExitBuildError
	case ClassProcess:
		return ExitProcessFailure
	case ClassInvalidInput:
		return ExitInvalidArgs
	default:
		return ExitIOError
	}
}

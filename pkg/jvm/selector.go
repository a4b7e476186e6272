// SPDX-License-Identifier: Apache-2.0
package jvm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/craftlaunch/pkg/descriptor"
)

// ErrUnavailable is wrapped by UnavailableError.
var ErrUnavailable = errors.New("❌ no compatible Java runtime")

// LegacyMajor is the only runtime legacy bootstrap loaders accept.
const LegacyMajor = 8

// Requirement constrains the runtime major version. The zero value accepts any runtime.
type Requirement struct {
	Major int
	Exact bool
}

// IsZero reports whether the requirement accepts any runtime.
func (r Requirement) IsZero() bool {
	return r.Major == 0
}

// Satisfied reports whether major meets the requirement.
func (r Requirement) Satisfied(major int) bool {
	switch {
	case r.IsZero():
		return true
	case r.Exact:
		return major == r.Major
	default:
		return major >= r.Major
	}
}

func (r Requirement) String() string {
	switch {
	case r.IsZero():
		return "any"
	case r.Exact:
		return fmt.Sprintf("exactly %d", r.Major)
	default:
		return fmt.Sprintf(">= %d", r.Major)
	}
}

var releaseIDPattern = regexp.MustCompile(`^1\.(\d+)`)

// InferRequirement derives the runtime requirement of a resolved descriptor.
// An explicit javaVersion wins; major 8 is always exact because legacy
// loaders break on newer runtimes.
func InferRequirement(d *descriptor.Descriptor) Requirement {
	if d.JavaVersion != nil && d.JavaVersion.MajorVersion > 0 {
		major := d.JavaVersion.MajorVersion
		return Requirement{Major: major, Exact: major == LegacyMajor}
	}

	if strings.Contains(strings.ToLower(d.MainClass), "launchwrapper") {
		return Requirement{Major: LegacyMajor, Exact: true}
	}

	ids := d.Lineage
	if len(ids) == 0 {
		ids = []string{d.ID}
	}
	for _, id := range ids {
		m := releaseIDPattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		minor, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch {
		case minor < 13:
			return Requirement{Major: LegacyMajor, Exact: true}
		case minor >= 18:
			return Requirement{Major: 17}
		case minor == 17:
			return Requirement{Major: 16}
		default:
			return Requirement{}
		}
	}
	return Requirement{}
}

// Choose applies the selection policy to the installed runtimes: an exact
// requirement takes only that major; a minimum takes the smallest satisfying
// major; no requirement takes the newest.
func Choose(req Requirement, installed map[int]string) (int, string, bool) {
	majors := Majors(installed)
	if len(majors) == 0 {
		return 0, "", false
	}

	if req.IsZero() {
		newest := majors[len(majors)-1]
		return newest, installed[newest], true
	}
	if path, ok := installed[req.Major]; ok {
		return req.Major, path, true
	}
	if req.Exact {
		return 0, "", false
	}
	for _, m := range majors {
		if m >= req.Major {
			return m, installed[m], true
		}
	}
	return 0, "", false
}

// Acquirer installs a runtime for a major version and returns its executable.
type Acquirer interface {
	Acquire(ctx context.Context, major int) (string, error)
}

// Discoverer reports installed runtimes.
type Discoverer interface {
	Discover(ctx context.Context) map[int]string
}

// Selection is the runtime chosen for a launch.
type Selection struct {
	Major    int
	Path     string
	Acquired bool
}

// UnavailableError reports that no runtime satisfies a requirement. It lists
// what is installed so the operator can pick another way forward.
type UnavailableError struct {
	Requirement Requirement
	Installed   []int
	AcquireErr  error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("%v: need %s, installed %v", ErrUnavailable, e.Requirement, e.Installed)
	if e.AcquireErr != nil {
		msg += fmt.Sprintf(" (acquisition failed: %v)", e.AcquireErr)
	}
	return msg
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// Selector picks a runtime, falling back to acquisition when allowed.
type Selector struct {
	registry Discoverer
	acquirer Acquirer
	logger   hclog.Logger
}

// NewSelector returns a Selector. acquirer may be nil to disable acquisition.
func NewSelector(registry Discoverer, acquirer Acquirer, logger hclog.Logger) *Selector {
	return &Selector{registry: registry, acquirer: acquirer, logger: logger.Named("jvm")}
}

// Select discovers installed runtimes and applies Choose. When nothing
// qualifies and a requirement exists, the acquirer is asked for that major.
func (s *Selector) Select(ctx context.Context, req Requirement) (Selection, error) {
	installed := s.registry.Discover(ctx)

	if major, path, ok := Choose(req, installed); ok {
		s.logger.Info("☕ Selected runtime", "requirement", req.String(), "major", major, "path", path)
		return Selection{Major: major, Path: path}, nil
	}

	unavailable := &UnavailableError{Requirement: req, Installed: Majors(installed)}
	if req.IsZero() || s.acquirer == nil {
		s.logger.Error("❌ No compatible runtime", "requirement", req.String(), "installed", unavailable.Installed)
		return Selection{}, unavailable
	}

	s.logger.Info("📥 Requesting runtime acquisition", "major", req.Major)
	path, err := s.acquirer.Acquire(ctx, req.Major)
	if err != nil {
		s.logger.Error("❌ Runtime acquisition failed", "major", req.Major, "error", err)
		unavailable.AcquireErr = err
		return Selection{}, unavailable
	}
	return Selection{Major: req.Major, Path: path, Acquired: true}, nil
}

// SPDX-License-Identifier: Apache-2.0
package descriptor

import (
	"regexp"

	"github.com/provide-io/craftlaunch/pkg/platform"
)

// Rule actions.
const (
	ActionAllow    = "allow"
	ActionDisallow = "disallow"
)

// Well-known feature flags referenced by argument rules.
const (
	FeatureDemoUser         = "is_demo_user"
	FeatureCustomResolution = "has_custom_resolution"
	FeatureQuickPlaySupport = "has_quick_plays_support"
)

// Environment is what rules are evaluated against.
type Environment struct {
	Platform  platform.Platform
	OSVersion string
	Features  map[string]bool
}

// matches reports whether every predicate the rule carries holds in env.
// A rule without predicates always matches.
func (r Rule) matches(env Environment) bool {
	if r.OS != nil {
		if r.OS.Name != "" && !osNameMatches(r.OS.Name, env.Platform) {
			return false
		}
		if r.OS.Arch != "" && r.OS.Arch != env.Platform.Arch {
			return false
		}
		if r.OS.Version != "" {
			re, err := regexp.Compile(r.OS.Version)
			if err != nil || !re.MatchString(env.OSVersion) {
				return false
			}
		}
	}
	for feature, want := range r.Features {
		if env.Features[feature] != want {
			return false
		}
	}
	return true
}

func osNameMatches(name string, p platform.Platform) bool {
	for _, dir := range p.NativeDirs() {
		if name == dir {
			return true
		}
	}
	return false
}

// Allowed evaluates a rule list. An allow rule whose predicate does not hold
// excludes; a disallow rule whose predicate holds excludes. An empty list allows.
func Allowed(rules []Rule, env Environment) bool {
	for _, r := range rules {
		matched := r.matches(env)
		switch r.Action {
		case ActionDisallow:
			if matched {
				return false
			}
		default:
			if !matched {
				return false
			}
		}
	}
	return true
}

// Included reports whether the library applies in env.
func (l *Library) Included(env Environment) bool {
	return Allowed(l.Rules, env)
}

// Included reports whether the argument applies in env.
func (a *Argument) Included(env Environment) bool {
	return Allowed(a.Rules, env)
}

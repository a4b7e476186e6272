// SPDX-License-Identifier: Apache-2.0
package plan

import (
	"regexp"
	"strings"
)

// ClasspathPlaceholder is left in the JVM list until the classpath is known.
const ClasspathPlaceholder = "${classpath}"

var placeholderPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

// substitute expands every ${key} found in vars. It reports false when a
// placeholder without a value remains; keep lists keys that may remain.
func substitute(token string, vars map[string]string, keep ...string) (string, bool) {
	resolved := true
	out := placeholderPattern.ReplaceAllStringFunc(token, func(m string) string {
		key := m[2 : len(m)-1]
		if v, ok := vars[key]; ok {
			return v
		}
		for _, k := range keep {
			if k == key {
				return m
			}
		}
		resolved = false
		return m
	})
	return out, resolved
}

// hasPlaceholder reports whether token still carries ${...} syntax.
func hasPlaceholder(token string) bool {
	return strings.Contains(token, "${")
}

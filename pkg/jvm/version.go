// SPDX-License-Identifier: Apache-2.0
package jvm

import (
	"regexp"
	"strconv"
)

var versionPattern = regexp.MustCompile(`version\s+["']?(\d+)(?:\.(\d+))?`)

// ParseMajorVersion extracts the major version from `java -version` output.
// Legacy "1.x" numbering reports major x.
func ParseMajorVersion(output string) (int, bool) {
	m := versionPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	if major == 1 && m[2] != "" {
		minor, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, false
		}
		return minor, true
	}
	return major, major > 0
}

// SPDX-License-Identifier: Apache-2.0
package plan

import (
	"strings"
)

// gameShapedFlags only ever belong after the entry class.
var gameShapedFlags = map[string]bool{
	"--username":       true,
	"--version":        true,
	"--gameDir":        true,
	"--assetsDir":      true,
	"--assetIndex":     true,
	"--uuid":           true,
	"--accessToken":    true,
	"--clientId":       true,
	"--xuid":           true,
	"--userType":       true,
	"--userProperties": true,
	"--versionType":    true,
	"--width":          true,
	"--height":         true,
	"--fullscreen":     true,
}

// isJVMShaped reports whether tok is a runtime option, which must never
// follow the entry class.
func isJVMShaped(tok string) bool {
	if classpathFlags[tok] || modulePathFlags[tok] {
		return true
	}
	for _, prefix := range []string{"-X", "-D", "--add-", "-javaagent", "--module-path="} {
		if strings.HasPrefix(tok, prefix) {
			return true
		}
	}
	return false
}

// Validate checks an argument list (without the executable) whose entry class
// sits at mainIdx. It never repairs; the first violation is returned.
func Validate(args []string, mainIdx int) error {
	if mainIdx < 0 || mainIdx >= len(args) {
		return buildError(InvariantEntryClass, "index %d outside %d arguments", mainIdx, len(args))
	}
	if main := args[mainIdx]; main == "" || strings.HasPrefix(main, "-") {
		return buildError(InvariantEntryClass, "entry class token %q", main)
	}

	cpAt := -1
	for i, tok := range args {
		if !classpathFlags[tok] {
			continue
		}
		if cpAt >= 0 {
			return buildError(InvariantSingleClasspath, "%s at %d and %s at %d", args[cpAt], cpAt, tok, i)
		}
		cpAt = i
	}
	if cpAt < 0 {
		return buildError(InvariantSingleClasspath, "no classpath flag")
	}
	if cpAt > mainIdx {
		return buildError(InvariantJVMAfterEntry, "%s after the entry class", args[cpAt])
	}
	if cpAt+1 >= mainIdx {
		return buildError(InvariantClasspathValue, "%s has no value before the entry class", args[cpAt])
	}
	if v := args[cpAt+1]; strings.TrimSpace(v) == "" || strings.HasPrefix(v, "-") || hasPlaceholder(v) {
		return buildError(InvariantClasspathValue, "value %q", v)
	}

	for i := 0; i < mainIdx; i++ {
		if gameShapedFlags[args[i]] {
			return buildError(InvariantGameBeforeEntry, "%s at %d", args[i], i)
		}
	}
	for i := mainIdx + 1; i < len(args); i++ {
		if isJVMShaped(args[i]) {
			return buildError(InvariantJVMAfterEntry, "%s at %d", args[i], i)
		}
	}
	return nil
}

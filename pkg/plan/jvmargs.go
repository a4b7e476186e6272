// SPDX-License-Identifier: Apache-2.0
package plan

import (
	"github.com/provide-io/craftlaunch/pkg/descriptor"
)

// legacyJVMArgs is used when a descriptor predates structured arguments.
var legacyJVMArgs = []string{
	"-Djava.library.path=${natives_directory}",
	"-Dminecraft.launcher.brand=${launcher_name}",
	"-Dminecraft.launcher.version=${launcher_version}",
}

func (b *Builder) jvmVars(in *Input) map[string]string {
	return map[string]string{
		"natives_directory":   in.NativeDir,
		"library_directory":   in.Paths.Libraries(),
		"version_name":        in.Descriptor.ID,
		"classpath_separator": in.Env.Platform.PathListSeparator(),
		"launcher_name":       in.Options.LauncherName,
		"launcher_version":    in.Options.LauncherVersion,
		"game_directory":      in.Paths.Root(),
	}
}

// jvmArgs walks the JVM list: heap and collector defaults, the descriptor's
// rule-filtered entries, then user extras. ${classpath} is left in place.
func (b *Builder) jvmArgs(in *Input, env descriptor.Environment, st *state) []string {
	var raw []string
	if in.Options.Memory != "" {
		raw = append(raw, "-Xmx"+in.Options.Memory)
	}
	raw = append(raw, in.Options.DefaultJVMArgs...)

	if entries := in.Descriptor.JVMArguments(); entries != nil {
		for i := range entries {
			if !entries[i].Included(env) {
				b.logger.Trace("⏭️ JVM argument excluded by rules", "values", entries[i].Values)
				continue
			}
			raw = append(raw, entries[i].Values...)
		}
	} else {
		b.logger.Debug("📜 No structured JVM arguments, using legacy defaults")
		raw = append(raw, legacyJVMArgs...)
	}
	raw = append(raw, in.Options.ExtraJVMArgs...)

	vars := b.jvmVars(in)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		val, ok := substitute(tok, vars, "classpath")
		if !ok {
			st.warn("dropped JVM argument with unresolved placeholder: %s", tok)
			continue
		}
		out = append(out, val)
	}
	return out
}

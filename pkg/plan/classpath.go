// SPDX-License-Identifier: Apache-2.0
package plan

import (
	"os"
	"strings"

	"github.com/provide-io/craftlaunch/pkg/descriptor"
)

var classpathFlags = map[string]bool{"-cp": true, "-classpath": true, "--class-path": true}

// classpath lists every applicable non-native library in order, then the
// version's own archive. Each canonical path appears once.
func (b *Builder) classpath(in *Input, env descriptor.Environment, st *state) ([]string, error) {
	foldCase := env.Platform.CaseInsensitiveFS()
	seen := make(map[string]bool)
	var entries []string

	for i := range in.Descriptor.Libraries {
		lib := &in.Descriptor.Libraries[i]
		if !lib.Included(env) || lib.HasNativeClassifier() {
			continue
		}
		rel := lib.ArtifactPath()
		if rel == "" || !strings.HasSuffix(strings.ToLower(rel), ".jar") {
			continue
		}
		path := in.Paths.Library(rel)
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			st.warn("library archive missing: %s", lib.Name)
			b.logger.Warn("⚠️ Library archive missing, leaving it off the classpath", "library", lib.Name, "path", path)
			continue
		}
		real, key := canonical(path, foldCase)
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, real)
	}

	primary, err := primaryArchive(in)
	if err != nil {
		return nil, err
	}
	real, key := canonical(primary, foldCase)
	if seen[key] {
		entries = removeKey(entries, key, foldCase)
	}
	return append(entries, real), nil
}

// primaryArchive returns the version jar, walking up the lineage when the
// leaf ships none of its own.
func primaryArchive(in *Input) (string, error) {
	ids := []string{in.Descriptor.JarID()}
	ids = append(ids, in.Descriptor.Lineage...)
	for _, id := range ids {
		path := in.Paths.VersionJar(id)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", buildError(InvariantPrimaryArchive, "no %s.jar found along %v", in.Descriptor.JarID(), ids)
}

func removeKey(entries []string, key string, foldCase bool) []string {
	out := entries[:0]
	for _, e := range entries {
		k := e
		if foldCase {
			k = strings.ToLower(k)
		}
		if k != key {
			out = append(out, e)
		}
	}
	return out
}

// placeClasspath sets the classpath exactly once. The first classpath flag
// keeps its position and receives the value; later flags and stray
// placeholders are removed. With no flag, -cp is appended.
func placeClasspath(args []string, value string) []string {
	out := make([]string, 0, len(args)+2)
	placed := false
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if classpathFlags[tok] {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			if placed {
				continue
			}
			out = append(out, tok, value)
			placed = true
			continue
		}
		if strings.Contains(tok, ClasspathPlaceholder) {
			continue
		}
		out = append(out, tok)
	}
	if !placed {
		out = append(out, "-cp", value)
	}
	return out
}

// SPDX-License-Identifier: Apache-2.0
package plan

import (
	"os"
	"path/filepath"
	"strings"
)

var modulePathFlags = map[string]bool{"-p": true, "--module-path": true}

// canonical resolves symlinks so the same archive reached two ways compares
// equal. key folds case on case-insensitive filesystems.
func canonical(path string, foldCase bool) (real, key string) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		real = path
	}
	if abs, err := filepath.Abs(real); err == nil {
		real = abs
	}
	key = real
	if foldCase {
		key = strings.ToLower(key)
	}
	return real, key
}

// within reports whether path lies inside root.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// rebuildModulePath rewrites the value of every module path flag so it lists
// only the archives the descriptor itself named, each an existing jar file
// inside the library root, without duplicates.
func (b *Builder) rebuildModulePath(in *Input, args []string, st *state) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		tok := args[i]

		flag, value, inline := tok, "", false
		if eq := strings.IndexByte(tok, '='); eq > 0 && modulePathFlags[tok[:eq]] {
			flag, value, inline = tok[:eq], tok[eq+1:], true
		}
		if !modulePathFlags[flag] {
			out = append(out, tok)
			continue
		}
		if !inline {
			if i+1 >= len(args) {
				return nil, buildError(InvariantModulePath, "%s has no value", flag)
			}
			i++
			value = args[i]
		}

		entries := b.moduleEntries(in, value, st)
		if len(entries) == 0 {
			return nil, buildError(InvariantModulePath, "no valid entries in %q", value)
		}
		st.modulePath = append(st.modulePath, entries...)

		joined := strings.Join(entries, in.Env.Platform.PathListSeparator())
		if inline {
			out = append(out, flag+"="+joined)
		} else {
			out = append(out, flag, joined)
		}
		b.logger.Debug("🧱 Rebuilt module path", "entries", len(entries))
	}
	return out, nil
}

func (b *Builder) moduleEntries(in *Input, value string, st *state) []string {
	sep := in.Env.Platform.PathListSeparator()
	foldCase := in.Env.Platform.CaseInsensitiveFS()
	libRoot, _ := canonical(in.Paths.Libraries(), false)

	seen := make(map[string]bool)
	var entries []string
	for _, entry := range strings.Split(value, sep) {
		entry = strings.TrimSpace(entry)
		if entry == "" || strings.HasPrefix(entry, "-") || !strings.HasSuffix(strings.ToLower(entry), ".jar") {
			continue
		}
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(in.Paths.Libraries(), entry)
		}

		info, err := os.Stat(entry)
		if err != nil || !info.Mode().IsRegular() {
			st.warn("module path entry missing or not a file: %s", entry)
			continue
		}
		real, key := canonical(entry, foldCase)
		if !within(libRoot, real) {
			st.warn("module path entry outside library root: %s", entry)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, real)
	}
	return entries
}

// SPDX-License-Identifier: Apache-2.0
// Package jvm discovers installed Java runtimes and picks one for a version.
package jvm

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/craftlaunch/pkg/platform"
)

// DefaultProbeTimeout bounds a single `java -version` call.
const DefaultProbeTimeout = 5 * time.Second

const probeWorkers = 4

// ProbeFunc reports the major version of the runtime at path.
type ProbeFunc func(ctx context.Context, path string) (int, error)

// Registry discovers runtimes on PATH, under vendored roots and in
// well-known install locations.
type Registry struct {
	platform platform.Platform
	roots    []string
	globs    []string
	logger   hclog.Logger

	lookPath func(string) (string, error)
	probe    ProbeFunc
}

// NewRegistry returns a Registry that walks roots for vendored runtimes.
func NewRegistry(p platform.Platform, roots []string, logger hclog.Logger) *Registry {
	r := &Registry{
		platform: p,
		roots:    roots,
		globs:    DefaultGlobs(p),
		logger:   logger.Named("jvm"),
		lookPath: exec.LookPath,
	}
	r.probe = r.Probe
	return r
}

// DefaultGlobs returns the well-known JDK install patterns for p.
func DefaultGlobs(p platform.Platform) []string {
	switch p.OS {
	case platform.Windows:
		var globs []string
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
			base := os.Getenv(env)
			if base == "" {
				continue
			}
			base = filepath.ToSlash(base)
			for _, vendor := range []string{"Java", "Eclipse Adoptium", "Microsoft", "Zulu", "BellSoft"} {
				globs = append(globs, base+"/"+vendor+"/*/bin/java.exe")
			}
		}
		return globs
	case platform.OSX:
		return []string{
			"/Library/Java/JavaVirtualMachines/*/Contents/Home/bin/java",
			"/opt/homebrew/opt/openjdk*/bin/java",
		}
	default:
		return []string{
			"/usr/lib/jvm/*/bin/java",
			"/usr/lib64/jvm/*/bin/java",
			"/opt/java/*/bin/java",
		}
	}
}

// Discover maps each installed major version to one executable. Candidates
// that fail to answer are ignored; on collision the shorter path wins.
func (r *Registry) Discover(ctx context.Context) map[int]string {
	candidates := r.candidates()
	r.logger.Debug("🔍 Probing runtime candidates", "count", len(candidates))

	majors := make([]int, len(candidates))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := min(probeWorkers, len(candidates))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				major, err := r.probe(ctx, candidates[i])
				if err != nil {
					r.logger.Trace("⏭️ Candidate did not answer", "path", candidates[i], "error", err)
					continue
				}
				majors[i] = major
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	found := make(map[int]string)
	for i, path := range candidates {
		major := majors[i]
		if major == 0 {
			continue
		}
		if existing, ok := found[major]; ok && len(existing) <= len(path) {
			continue
		}
		found[major] = path
	}

	r.logger.Info("☕ Discovered runtimes", "majors", Majors(found))
	return found
}

// candidates returns de-duplicated executables in discovery order: search
// path first, then vendored roots, then install globs.
func (r *Registry) candidates() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(path string) {
		path = filepath.Clean(path)
		key := path
		if r.platform.CaseInsensitiveFS() {
			key = strings.ToLower(key)
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, path)
		}
	}

	names := []string{"java"}
	if r.platform.IsWindows() {
		names = append(names, "javaw")
	}
	for _, name := range names {
		if path, err := r.lookPath(r.platform.ExecutableName(name)); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			add(path)
		}
	}

	for _, root := range r.roots {
		for _, path := range r.walkRoot(root) {
			add(path)
		}
	}

	for _, pattern := range r.globs {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			r.logger.Debug("⚠️ Bad runtime glob", "pattern", pattern, "error", err)
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out
}

// walkRoot returns every bin/java executable below root, sorted.
func (r *Registry) walkRoot(root string) []string {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil
	}

	want := r.platform.ExecutableName("java")
	var (
		mu    sync.Mutex
		found []string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.EqualFold(d.Name(), want) {
			return nil
		}
		if !strings.EqualFold(filepath.Base(filepath.Dir(path)), "bin") {
			return nil
		}
		mu.Lock()
		found = append(found, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		r.logger.Debug("⚠️ Failed to walk runtime root", "root", root, "error", err)
	}

	sort.Strings(found)
	return found
}

// Probe runs `path -version` and parses the reported major version.
func (r *Registry) Probe(ctx context.Context, path string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "-version").CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("failed to run %s -version: %w", path, err)
	}
	major, ok := ParseMajorVersion(string(out))
	if !ok {
		return 0, fmt.Errorf("unrecognised version output from %s", path)
	}
	return major, nil
}

// Majors returns the installed majors in ascending order.
func Majors(found map[int]string) []int {
	majors := make([]int, 0, len(found))
	for m := range found {
		majors = append(majors, m)
	}
	sort.Ints(majors)
	return majors
}

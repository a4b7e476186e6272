// SPDX-License-Identifier: Apache-2.0
package natives

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/zip"

	"github.com/provide-io/craftlaunch/pkg/descriptor"
	"github.com/provide-io/craftlaunch/pkg/platform"
)

var (
	errNoArchive = errors.New("native archive not found")
	errNoFiles   = errors.New("archive holds no native files for this platform")
)

type extractor struct {
	platform platform.Platform
	dest     string
	logger   hclog.Logger
}

// extractLibrary extracts lib's native archive, trying sibling variants when
// the derived archive is missing or yields nothing. It returns the extracted
// file names and the archive it used. Files written before a failure are
// returned alongside the error.
func (x *extractor) extractLibrary(lib *descriptor.Library, paths *descriptor.Paths) ([]string, string, error) {
	rel := lib.NativePath(x.platform)
	if rel == "" {
		return nil, "", errNoArchive
	}
	primary := paths.Library(rel)

	candidates := []string{}
	if info, err := os.Stat(primary); err == nil && !info.IsDir() {
		candidates = append(candidates, primary)
	}
	candidates = append(candidates, x.variants(lib, primary)...)
	if len(candidates) == 0 {
		return nil, primary, errNoArchive
	}

	var (
		lastErr error
		written []string
	)
	for _, archive := range candidates {
		files, err := x.extractArchive(archive, lib.Extract)
		written = appendUnique(written, files...)
		if err == nil && len(files) > 0 {
			x.logger.Debug("📦 Extracted native archive", "archive", archive, "files", len(files))
			return written, archive, nil
		}
		if err == nil {
			err = errNoFiles
		}
		lastErr = err
		x.logger.Debug("⏭️ Native archive yielded nothing", "archive", archive, "partial", len(files), "error", err)
	}
	return written, candidates[len(candidates)-1], lastErr
}

func appendUnique(list []string, names ...string) []string {
	for _, name := range names {
		if !slices.Contains(list, name) {
			list = append(list, name)
		}
	}
	return list
}

// variants lists artifact*natives*<platform>*.jar files next to primary.
func (x *extractor) variants(lib *descriptor.Library, primary string) []string {
	c, ok := descriptor.ParseCoordinate(lib.Name)
	if !ok {
		return nil
	}
	dir := filepath.Dir(primary)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		full := filepath.Join(dir, e.Name())
		if e.IsDir() || full == primary || !strings.HasSuffix(name, ".jar") {
			continue
		}
		if !strings.HasPrefix(name, strings.ToLower(c.Artifact)) || !strings.Contains(name, "natives") {
			continue
		}
		for _, osDir := range x.platform.NativeDirs() {
			if strings.Contains(name, osDir) {
				out = append(out, full)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// extractArchive copies native files from archive into the session root,
// flattening directories. Entries under <os>/<arch>/ are taken first; if there
// are none, any native file is taken without overwriting earlier files.
func (x *extractor) extractArchive(archive string, rules *descriptor.ExtractRules) ([]string, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", archive, err)
	}
	defer zr.Close()

	var prefixes []string
	for _, osDir := range x.platform.NativeDirs() {
		prefixes = append(prefixes, osDir+"/"+x.platform.Arch+"/")
	}

	var candidates []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !x.platform.HasNativeExtension(f.Name) || excluded(f.Name, rules) {
			continue
		}
		candidates = append(candidates, f)
	}

	var files []string
	for _, f := range candidates {
		if !hasAnyPrefix(f.Name, prefixes) {
			continue
		}
		name, err := x.writeEntry(f, true)
		if err != nil {
			return files, err
		}
		files = append(files, name)
	}
	if len(files) > 0 {
		return files, nil
	}

	if len(candidates) > 0 {
		x.logger.Debug("🔁 No entries for architecture, using fallback", "archive", archive, "arch", x.platform.Arch)
	}
	for _, f := range candidates {
		name, err := x.writeEntry(f, false)
		if err != nil {
			return files, err
		}
		if name != "" {
			files = append(files, name)
		}
	}
	return files, nil
}

// writeEntry writes f into the session root under its base name. With
// overwrite false an existing file is left alone and "" is returned.
func (x *extractor) writeEntry(f *zip.File, overwrite bool) (string, error) {
	name := path.Base(f.Name)
	if name == "." || name == "/" || name == ".." {
		return "", nil
	}
	target := filepath.Join(x.dest, name)

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_EXCL
	}
	out, err := os.OpenFile(target, flags, 0o755)
	if err != nil {
		if !overwrite && errors.Is(err, os.ErrExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	rc, err := f.Open()
	if err != nil {
		out.Close()
		return "", fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	_, err = io.Copy(out, rc)
	rc.Close()
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	x.logger.Trace("  ✅ Extracted", "file", name, "from", f.Name)
	return name, nil
}

func excluded(name string, rules *descriptor.ExtractRules) bool {
	if strings.HasPrefix(name, "META-INF/") {
		return true
	}
	if rules == nil {
		return false
	}
	for _, prefix := range rules.Exclude {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

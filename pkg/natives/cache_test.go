// SPDX-License-Identifier: Apache-2.0
package natives

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/craftlaunch/pkg/descriptor"
	"github.com/provide-io/craftlaunch/pkg/platform"
)

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Trace})
}

var linuxX64 = descriptor.Environment{Platform: platform.Platform{OS: platform.Linux, Arch: platform.X64}}

func writeJar(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestMaterialize_ArchitecturePrefix(t *testing.T) {
	instance := t.TempDir()
	paths := descriptor.NewPaths(instance)
	writeJar(t, paths.Library("org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar"), map[string]string{
		"META-INF/MANIFEST.MF":              "Manifest-Version: 1.0",
		"linux/x64/org/lwjgl/liblwjgl.so":   "x64",
		"linux/arm64/org/lwjgl/liblwjgl.so": "arm64",
		"linux/x64/org/lwjgl/lwjgl.sha1":    "hash",
		"windows/x64/org/lwjgl/lwjgl.dll":   "dll",
	})

	d := &descriptor.Descriptor{ID: "1.20.4", Lineage: []string{"1.20.4"}, Libraries: []descriptor.Library{
		{Name: "org.lwjgl:lwjgl:3.3.3"},
		{Name: "org.lwjgl:lwjgl:3.3.3:natives-linux"},
		{Name: "org.lwjgl:lwjgl:3.3.3:natives-windows"},
	}}

	cache := NewCache(paths.Natives(), 0, testLogger())
	s, err := cache.Materialize(d, paths, linuxX64)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(paths.Natives(), s.ID), s.Dir)
	assert.Equal(t, []string{"liblwjgl.so"}, listDir(t, s.Dir))
	assert.Equal(t, "x64", readFile(t, filepath.Join(s.Dir, "liblwjgl.so")))
	assert.Empty(t, s.Warnings)
}

func TestMaterialize_FallbackDoesNotOverwrite(t *testing.T) {
	instance := t.TempDir()
	paths := descriptor.NewPaths(instance)
	writeJar(t, paths.Library("org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar"), map[string]string{
		"linux/x64/org/lwjgl/liblwjgl.so": "modern",
	})
	writeJar(t, paths.Library("org/lwjgl/lwjgl/lwjgl-platform/2.9.4/lwjgl-platform-2.9.4-natives-linux.jar"), map[string]string{
		"liblwjgl.so":  "legacy",
		"libopenal.so": "openal",
		"README.txt":   "docs",
	})

	d := &descriptor.Descriptor{ID: "v", Libraries: []descriptor.Library{
		{Name: "org.lwjgl:lwjgl:3.3.3:natives-linux"},
		{Name: "org.lwjgl.lwjgl:lwjgl-platform:2.9.4", Natives: map[string]string{"linux": "natives-linux"}},
	}}

	s, err := NewCache(paths.Natives(), 0, testLogger()).Materialize(d, paths, linuxX64)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"liblwjgl.so", "libopenal.so"}, listDir(t, s.Dir))
	assert.Equal(t, "modern", readFile(t, filepath.Join(s.Dir, "liblwjgl.so")))
	assert.ElementsMatch(t, []string{"liblwjgl.so", "libopenal.so"}, s.Extracted)
}

func TestMaterialize_MissingArchiveIsWarning(t *testing.T) {
	paths := descriptor.NewPaths(t.TempDir())
	d := &descriptor.Descriptor{ID: "v", Libraries: []descriptor.Library{
		{Name: "org.lwjgl:lwjgl-glfw:3.3.3:natives-linux"},
		{Name: "org.lwjgl:lwjgl-glfw:3.3.3:natives-linux-arm64",
			Rules: []descriptor.Rule{{Action: descriptor.ActionAllow, OS: &descriptor.OSRule{Arch: "arm64"}}}},
	}}

	s, err := NewCache(paths.Natives(), 0, testLogger()).Materialize(d, paths, linuxX64)
	require.NoError(t, err)
	require.Len(t, s.Warnings, 1, "rule-excluded library is not attempted")

	w := s.Warnings[0]
	assert.Equal(t, "org.lwjgl:lwjgl-glfw:3.3.3:natives-linux", w.Library)
	assert.True(t, errors.Is(w, ErrExtraction))
	assert.DirExists(t, s.Dir)
}

func TestMaterialize_PartialExtractionIsRecorded(t *testing.T) {
	paths := descriptor.NewPaths(t.TempDir())
	jar := paths.Library("org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar")
	require.NoError(t, os.MkdirAll(filepath.Dir(jar), 0o755))
	f, err := os.Create(jar)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("linux/x64/org/lwjgl/liblwjgl.so")
	require.NoError(t, err)
	_, err = w.Write([]byte("good"))
	require.NoError(t, err)
	// Stored entry whose checksum does not match its content.
	w, err = zw.CreateRaw(&zip.FileHeader{
		Name:               "linux/x64/org/lwjgl/libzstd.so",
		Method:             zip.Store,
		CRC32:              0xdeadbeef,
		CompressedSize64:   3,
		UncompressedSize64: 3,
	})
	require.NoError(t, err)
	_, err = w.Write([]byte("bad"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	d := &descriptor.Descriptor{ID: "v", Libraries: []descriptor.Library{
		{Name: "org.lwjgl:lwjgl:3.3.3:natives-linux"},
	}}
	s, err := NewCache(paths.Natives(), 0, testLogger()).Materialize(d, paths, linuxX64)
	require.NoError(t, err)

	require.Len(t, s.Warnings, 1)
	assert.True(t, errors.Is(s.Warnings[0], ErrExtraction))
	assert.Equal(t, []string{"liblwjgl.so"}, s.Extracted)
	assert.Equal(t, "good", readFile(t, filepath.Join(s.Dir, "liblwjgl.so")))
}

func TestMaterialize_SiblingVariant(t *testing.T) {
	paths := descriptor.NewPaths(t.TempDir())
	writeJar(t, paths.Library("org/lwjgl/lwjgl-openal/3.3.3/lwjgl-openal-3.3.3-natives-linux-x64.jar"), map[string]string{
		"linux/x64/org/lwjgl/openal/libopenal.so": "al",
	})
	writeJar(t, paths.Library("org/lwjgl/lwjgl-openal/3.3.3/lwjgl-openal-3.3.3-natives-windows.jar"), map[string]string{
		"windows/x64/org/lwjgl/openal/OpenAL.dll": "dll",
	})

	d := &descriptor.Descriptor{ID: "v", Libraries: []descriptor.Library{
		{Name: "org.lwjgl:lwjgl-openal:3.3.3:natives-linux"},
	}}

	s, err := NewCache(paths.Natives(), 0, testLogger()).Materialize(d, paths, linuxX64)
	require.NoError(t, err)
	assert.Empty(t, s.Warnings)
	assert.Equal(t, []string{"libopenal.so"}, listDir(t, s.Dir))
}

func TestMaterialize_PreExtractedFallback(t *testing.T) {
	paths := descriptor.NewPaths(t.TempDir())
	require.NoError(t, os.MkdirAll(paths.VersionNatives("1.8.9"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(paths.VersionNatives("1.8.9"), "liblwjgl64.so"), []byte("old"), 0o644))

	d := &descriptor.Descriptor{ID: "optifine", Lineage: []string{"optifine", "1.8.9"}}

	s, err := NewCache(paths.Natives(), 0, testLogger()).Materialize(d, paths, linuxX64)
	require.NoError(t, err)
	assert.Equal(t, []string{"liblwjgl64.so"}, s.Extracted)
	assert.Equal(t, "old", readFile(t, filepath.Join(s.Dir, "liblwjgl64.so")))
}

func TestMaterialize_SessionsAreUnique(t *testing.T) {
	paths := descriptor.NewPaths(t.TempDir())
	cache := NewCache(paths.Natives(), 0, testLogger())
	d := &descriptor.Descriptor{ID: "v"}

	a, err := cache.Materialize(d, paths, linuxX64)
	require.NoError(t, err)
	b, err := cache.Materialize(d, paths, linuxX64)
	require.NoError(t, err)

	assert.NotEqual(t, a.Dir, b.Dir)
	assert.DirExists(t, a.Dir)
	assert.DirExists(t, b.Dir)
}

func TestReap(t *testing.T) {
	root := t.TempDir()
	cache := NewCache(root, 24*time.Hour, testLogger())
	now := time.Now()
	cache.now = func() time.Time { return now }

	mk := func(name string) string {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		return dir
	}
	age := func(dir string, d time.Duration) {
		old := now.Add(-d)
		require.NoError(t, os.Chtimes(dir, old, old))
	}

	stale := mk("stale")
	fresh := mk("fresh")
	owned := mk("owned")
	current := mk("current")
	require.NoError(t, cache.MarkOwner(&Session{Dir: owned}, os.Getpid()))
	deadOwner := mk("dead-owner")
	require.NoError(t, cache.MarkOwner(&Session{Dir: deadOwner}, 1<<22))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray-file"), nil, 0o644))

	age(stale, 25*time.Hour)
	age(fresh, time.Hour)
	age(owned, 72*time.Hour)
	age(current, 72*time.Hour)
	age(deadOwner, 48*time.Hour)

	removed, err := cache.Reap("current")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.ElementsMatch(t, []string{"fresh", "owned", "current", "stray-file"}, listDir(t, root))
}

func TestReap_MissingRoot(t *testing.T) {
	removed, err := NewCache(filepath.Join(t.TempDir(), "nope"), 0, testLogger()).Reap("")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

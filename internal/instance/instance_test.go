// SPDX-License-Identifier: Apache-2.0
package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/craftlaunch/pkg/descriptor"
	"github.com/provide-io/craftlaunch/pkg/platform"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newCatalog(t *testing.T) (*Catalog, *descriptor.Paths) {
	paths := descriptor.NewPaths(t.TempDir())
	logger := hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Trace})
	return NewCatalog(paths, descriptor.Environment{Platform: platform.Current()}, logger), paths
}

func version(t *testing.T, paths *descriptor.Paths, id, released string, libs []string, present int, jar bool) {
	t.Helper()
	var entries string
	for i, name := range libs {
		if i > 0 {
			entries += ","
		}
		entries += fmt.Sprintf(`{"name":%q}`, name)
		if i < present {
			write(t, paths.Library(descriptor.MavenPath(name)), "PK")
		}
	}
	write(t, paths.VersionJSON(id), fmt.Sprintf(
		`{"id":%q,"type":"release","releaseTime":%q,"mainClass":"Main","libraries":[%s]}`, id, released, entries))
	if jar {
		write(t, paths.VersionJar(id), "PK")
	}
}

func libs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("com.example:lib%d:1.0", i)
	}
	return out
}

func TestIsInstalled(t *testing.T) {
	c, paths := newCatalog(t)
	version(t, paths, "complete", "2023-01-01T00:00:00+00:00", libs(5), 5, true)
	version(t, paths, "mostly", "2023-01-01T00:00:00+00:00", libs(5), 4, true)
	version(t, paths, "sparse", "2023-01-01T00:00:00+00:00", libs(5), 3, true)
	version(t, paths, "nojar", "2023-01-01T00:00:00+00:00", nil, 0, false)

	assert.True(t, c.IsInstalled("complete"))
	assert.True(t, c.IsInstalled("mostly"))
	assert.False(t, c.IsInstalled("sparse"))
	assert.False(t, c.IsInstalled("nojar"))
	assert.False(t, c.IsInstalled("missing"))
}

func TestIsInstalled_InheritsJar(t *testing.T) {
	c, paths := newCatalog(t)
	version(t, paths, "1.20.1", "2023-06-12T13:25:51+00:00", nil, 0, true)
	write(t, paths.VersionJSON("fabric"), `{"id":"fabric","inheritsFrom":"1.20.1","mainClass":"Knot"}`)

	assert.True(t, c.IsInstalled("fabric"))
}

func TestIsInstalled_NativeOnlyLibraries(t *testing.T) {
	c, paths := newCatalog(t)
	dir := platform.Current().NativeDirs()[0]
	native := descriptor.Library{
		Name:    "org.lwjgl.lwjgl:lwjgl-platform:2.9.4",
		Natives: map[string]string{dir: "natives-" + dir},
	}

	// Five counted archives: four plain libraries and this platform's native.
	// The foreign-platform native is not counted.
	version(t, paths, "legacy", "2013-01-01T00:00:00+00:00", libs(4), 3, true)
	write(t, paths.VersionJSON("legacy"), fmt.Sprintf(
		`{"id":"legacy","releaseTime":"2013-01-01T00:00:00+00:00","mainClass":"Main","libraries":[
		{"name":"com.example:lib0:1.0"},{"name":"com.example:lib1:1.0"},
		{"name":"com.example:lib2:1.0"},{"name":"com.example:lib3:1.0"},
		{"name":%q,"natives":{%q:%q}},
		{"name":%q,"natives":{"no-such-os":"natives-none"}}]}`,
		native.Name, dir, "natives-"+dir, "net.java.jinput:jinput-platform:2.0.5"))
	assert.False(t, c.IsInstalled("legacy"))

	write(t, paths.Library(native.NativePath(platform.Current())), "PK")
	assert.True(t, c.IsInstalled("legacy"))
}

func TestListAndLatest(t *testing.T) {
	c, paths := newCatalog(t)
	version(t, paths, "1.8.9", "2015-12-03T09:24:39+00:00", nil, 0, true)
	version(t, paths, "1.20.4", "2023-12-07T12:56:20+00:00", nil, 0, true)
	version(t, paths, "1.12.2", "2017-09-18T08:39:46+00:00", nil, 0, true)
	version(t, paths, "24w14a", "2024-04-03T12:00:00+00:00", nil, 0, false)
	require.NoError(t, os.MkdirAll(paths.VersionDir("empty"), 0o755))

	all, err := c.List(false)
	require.NoError(t, err)
	var ids []string
	for _, v := range all {
		ids = append(ids, v.ID)
	}
	assert.Equal(t, []string{"24w14a", "1.20.4", "1.12.2", "1.8.9"}, ids)
	assert.False(t, all[0].Installed)

	latest, err := c.Latest()
	require.NoError(t, err)
	assert.Equal(t, "1.20.4", latest)

	id, err := c.ResolveAlias("LATEST")
	require.NoError(t, err)
	assert.Equal(t, "1.20.4", id)

	id, err = c.ResolveAlias("1.8.9")
	require.NoError(t, err)
	assert.Equal(t, "1.8.9", id)
}

func TestLatest_Empty(t *testing.T) {
	c, _ := newCatalog(t)
	_, err := c.Latest()
	assert.Error(t, err)
}

func TestEnsure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "instance")
	require.NoError(t, Ensure(root))
	for _, dir := range Layout {
		assert.DirExists(t, filepath.Join(root, dir.Path))
	}
}

func TestDefaultRoot(t *testing.T) {
	t.Setenv(EnvInstanceRoot, "/srv/minecraft")
	assert.Equal(t, "/srv/minecraft", DefaultRoot())

	t.Setenv(EnvInstanceRoot, "")
	if runtime.GOOS == "linux" {
		t.Setenv("HOME", "/home/steve")
		assert.Equal(t, "/home/steve/.minecraft", DefaultRoot())
	}
}

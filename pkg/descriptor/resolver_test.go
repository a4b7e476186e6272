// SPDX-License-Identifier: Apache-2.0
package descriptor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Trace})
}

func writeVersion(t *testing.T, root, id, body string) {
	t.Helper()
	p := NewPaths(root)
	require.NoError(t, os.MkdirAll(p.VersionDir(id), 0o755))
	require.NoError(t, os.WriteFile(p.VersionJSON(id), []byte(body), 0o644))
}

func libraryNames(d *Descriptor) []string {
	names := make([]string, len(d.Libraries))
	for i, l := range d.Libraries {
		names[i] = l.Name
	}
	return names
}

func TestResolve_TwoLevelChain(t *testing.T) {
	root := t.TempDir()
	writeVersion(t, root, "A", `{"id":"A","mainClass":"Main","type":"release",
		"libraries":[{"name":"com.example:l1:1.0"}],
		"arguments":{"jvm":["-Da=1"],"game":["--a"]}}`)
	writeVersion(t, root, "B", `{"id":"B","inheritsFrom":"A","mainClass":"Main2",
		"libraries":[{"name":"com.example:l2:1.0"}],
		"arguments":{"jvm":["-Db=2"],"game":["--b"]}}`)

	d, err := NewResolver(NewPaths(root), testLogger()).Resolve("B")
	require.NoError(t, err)

	assert.Equal(t, "B", d.ID)
	assert.Equal(t, "Main2", d.MainClass)
	assert.Equal(t, "release", d.Type)
	assert.Equal(t, []string{"com.example:l1:1.0", "com.example:l2:1.0"}, libraryNames(d))
	assert.Equal(t, []string{"B", "A"}, d.Lineage)
	require.NotNil(t, d.Arguments)
	assert.Equal(t, []Argument{{Values: []string{"-Da=1"}}, {Values: []string{"-Db=2"}}}, d.Arguments.JVM)
	assert.Equal(t, []Argument{{Values: []string{"--a"}}, {Values: []string{"--b"}}}, d.Arguments.Game)
}

func TestResolve_ChildReplacesInPlace(t *testing.T) {
	root := t.TempDir()
	writeVersion(t, root, "base", `{"id":"base","mainClass":"Main","libraries":[
		{"name":"g:one:1"},
		{"name":"g:two:1","url":"parent"},
		{"name":"g:three:1"}]}`)
	writeVersion(t, root, "mod", `{"id":"mod","inheritsFrom":"base","libraries":[
		{"name":"g:four:1"},
		{"name":"g:two:1:extra","url":"child"}]}`)

	d, err := NewResolver(NewPaths(root), testLogger()).Resolve("mod")
	require.NoError(t, err)

	assert.Equal(t, []string{"g:one:1", "g:two:1:extra", "g:three:1", "g:four:1"}, libraryNames(d))
	assert.Equal(t, "child", d.Libraries[1].URL)
	assert.Equal(t, "Main", d.MainClass)

	seen := map[string]bool{}
	for _, l := range d.Libraries {
		assert.False(t, seen[l.BaseName()], "duplicate %s", l.BaseName())
		seen[l.BaseName()] = true
	}
}

func TestResolve_NativeClassifierReplacesSameCoordinate(t *testing.T) {
	root := t.TempDir()
	writeVersion(t, root, "A", `{"id":"A","libraries":[
		{"name":"org.lwjgl:lwjgl:3.3.1","url":"parent"},
		{"name":"org.lwjgl:glfw:3.3.1"}]}`)
	writeVersion(t, root, "B", `{"id":"B","inheritsFrom":"A","libraries":[
		{"name":"org.lwjgl:lwjgl:3.3.1:natives-linux","url":"child"}]}`)

	d, err := NewResolver(NewPaths(root), testLogger()).Resolve("B")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"org.lwjgl:lwjgl:3.3.1:natives-linux",
		"org.lwjgl:glfw:3.3.1",
	}, libraryNames(d))
	assert.Equal(t, "child", d.Libraries[0].URL)

	seen := map[string]bool{}
	for _, l := range d.Libraries {
		assert.False(t, seen[l.BaseName()], "duplicate %s", l.BaseName())
		seen[l.BaseName()] = true
	}
}

func TestResolve_ThreeLevels(t *testing.T) {
	root := t.TempDir()
	writeVersion(t, root, "1.20.1", `{"id":"1.20.1","mainClass":"net.minecraft.client.main.Main",
		"javaVersion":{"component":"java-runtime-gamma","majorVersion":17},
		"assetIndex":{"id":"5"},"libraries":[{"name":"g:a:1"}]}`)
	writeVersion(t, root, "forge", `{"id":"forge","inheritsFrom":"1.20.1","mainClass":"cpw.mods.bootstraplauncher.BootstrapLauncher",
		"libraries":[{"name":"g:a:2"}]}`)
	writeVersion(t, root, "pack", `{"id":"pack","inheritsFrom":"forge","libraries":[{"name":"g:a:2","url":"pack"}]}`)

	d, err := NewResolver(NewPaths(root), testLogger()).Resolve("pack")
	require.NoError(t, err)
	assert.Equal(t, []string{"pack", "forge", "1.20.1"}, d.Lineage)
	assert.Equal(t, "cpw.mods.bootstraplauncher.BootstrapLauncher", d.MainClass)
	assert.Equal(t, 17, d.JavaVersion.MajorVersion)
	assert.Equal(t, "5", d.AssetIndexName())
	assert.Equal(t, []string{"g:a:1", "g:a:2"}, libraryNames(d))
	assert.Equal(t, "pack", d.Libraries[1].URL)
	assert.Empty(t, d.InheritsFrom)
}

func TestResolve_Errors(t *testing.T) {
	root := t.TempDir()
	writeVersion(t, root, "x", `{"id":"x","inheritsFrom":"y"}`)
	writeVersion(t, root, "y", `{"id":"y","inheritsFrom":"x"}`)
	writeVersion(t, root, "orphan", `{"id":"orphan","inheritsFrom":"gone"}`)
	writeVersion(t, root, "broken", `{"id":"broken",`)

	r := NewResolver(NewPaths(root), testLogger())

	tests := []struct {
		id   string
		want error
	}{
		{"x", ErrCycle},
		{"missing", ErrNotFound},
		{"orphan", ErrNotFound},
		{"broken", ErrMalformed},
		{"../escape", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d, err := r.Resolve(tt.id)
			assert.Nil(t, d)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var derr *Error
			require.True(t, errors.As(err, &derr))
		})
	}
}

func TestResolve_SelfCycle(t *testing.T) {
	root := t.TempDir()
	writeVersion(t, root, "loop", `{"id":"loop","inheritsFrom":"loop"}`)

	_, err := NewResolver(NewPaths(root), testLogger()).Resolve("loop")
	require.ErrorIs(t, err, ErrCycle)
}

func TestArgumentDecoding(t *testing.T) {
	root := t.TempDir()
	writeVersion(t, root, "v", `{"id":"v","arguments":{"jvm":[
		"-Dplain",
		{"rules":[{"action":"allow","os":{"name":"osx"}}],"value":["-XstartOnFirstThread"]},
		{"rules":[{"action":"allow","os":{"arch":"x86"}}],"value":"-Xss1M"}
	]}}`)

	d, err := Load(filepath.Join(root, "versions", "v", "v.json"))
	require.NoError(t, err)
	jvm := d.JVMArguments()
	require.Len(t, jvm, 3)
	assert.Equal(t, []string{"-Dplain"}, jvm[0].Values)
	assert.Empty(t, jvm[0].Rules)
	assert.Equal(t, []string{"-XstartOnFirstThread"}, jvm[1].Values)
	assert.Equal(t, "osx", jvm[1].Rules[0].OS.Name)
	assert.Equal(t, []string{"-Xss1M"}, jvm[2].Values)
	assert.Nil(t, d.GameArguments())
}

func TestNewPaths_RelativeRootIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	p := NewPaths("mc")
	want, err := filepath.Abs("mc")
	require.NoError(t, err)
	assert.Equal(t, want, p.Root())
	assert.True(t, filepath.IsAbs(p.Natives()))
	assert.Equal(t, filepath.Join(want, AssetsDir), p.Assets())
}

// SPDX-License-Identifier: Apache-2.0
package descriptor

import (
	"path/filepath"
)

// Directory names inside an instance root.
const (
	VersionsDir  = "versions"
	LibrariesDir = "libraries"
	AssetsDir    = "assets"
	RuntimeDir   = "runtime"
	NativesDir   = "bin"
	LogsDir      = "logs"
)

// Paths resolves locations inside one game instance directory.
type Paths struct {
	root string
}

// NewPaths returns the layout rooted at instanceRoot. A relative root is
// made absolute against the current directory, since the game runs with the
// root as its working directory.
func NewPaths(instanceRoot string) *Paths {
	root, err := filepath.Abs(instanceRoot)
	if err != nil {
		root = filepath.Clean(instanceRoot)
	}
	return &Paths{root: root}
}

// Root returns the instance root, also the game's working directory.
func (p *Paths) Root() string {
	return p.root
}

// Versions returns the directory holding one subdirectory per version id.
func (p *Paths) Versions() string {
	return filepath.Join(p.root, VersionsDir)
}

// VersionDir returns versions/<id>.
func (p *Paths) VersionDir(id string) string {
	return filepath.Join(p.Versions(), id)
}

// VersionJSON returns versions/<id>/<id>.json.
func (p *Paths) VersionJSON(id string) string {
	return filepath.Join(p.VersionDir(id), id+".json")
}

// VersionJar returns versions/<id>/<id>.jar.
func (p *Paths) VersionJar(id string) string {
	return filepath.Join(p.VersionDir(id), id+".jar")
}

// VersionNatives returns versions/<id>/natives, where older installers
// leave pre-extracted native files.
func (p *Paths) VersionNatives(id string) string {
	return filepath.Join(p.VersionDir(id), "natives")
}

// Libraries returns the trusted library root.
func (p *Paths) Libraries() string {
	return filepath.Join(p.root, LibrariesDir)
}

// Library converts a slash-separated repository path to a file path.
func (p *Paths) Library(rel string) string {
	return filepath.Join(p.Libraries(), filepath.FromSlash(rel))
}

// Assets returns the asset root.
func (p *Paths) Assets() string {
	return filepath.Join(p.root, AssetsDir)
}

// LegacyAssets returns the directory older versions expect for ${game_assets}.
func (p *Paths) LegacyAssets() string {
	return filepath.Join(p.Assets(), "virtual", "legacy")
}

// Runtime returns the vendored runtime root.
func (p *Paths) Runtime() string {
	return filepath.Join(p.root, RuntimeDir)
}

// Natives returns the native cache root holding one directory per session.
func (p *Paths) Natives() string {
	return filepath.Join(p.root, NativesDir)
}

// Logs returns the launch log directory.
func (p *Paths) Logs() string {
	return filepath.Join(p.root, LogsDir)
}

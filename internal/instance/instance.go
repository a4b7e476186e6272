// SPDX-License-Identifier: Apache-2.0
// Package instance locates game instances and reports which versions they hold.
package instance

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/craftlaunch/pkg/descriptor"
)

// EnvInstanceRoot overrides DefaultRoot.
const EnvInstanceRoot = "CRAFTLAUNCH_INSTANCE_ROOT"

// LatestAlias names the newest installed version.
const LatestAlias = "latest"

// installedRatio is the share of applicable libraries that must be present
// for a version to count as installed.
const installedRatio = 0.8

// DefaultRoot returns the standard game directory for the current platform.
func DefaultRoot() string {
	if root := os.Getenv(EnvInstanceRoot); root != "" {
		return root
	}

	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, ".minecraft")
		}
	case "darwin":
		if home != "" {
			return filepath.Join(home, "Library", "Application Support", "minecraft")
		}
	}
	if home != "" {
		return filepath.Join(home, ".minecraft")
	}
	return filepath.Join(os.TempDir(), ".minecraft")
}

// DirectorySpec specifies a directory to create
type DirectorySpec struct {
	Path string
	Mode uint32
}

// Layout lists the directories an instance needs before a launch.
var Layout = []DirectorySpec{
	{Path: "versions"},
	{Path: "libraries"},
	{Path: "assets"},
	{Path: "logs"},
	{Path: "runtime"},
	{Path: "bin"},
}

// Ensure creates the instance root and its standard layout.
func Ensure(root string) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create instance root: %w", err)
	}
	for _, dir := range Layout {
		mode := dir.Mode
		if mode == 0 {
			mode = 0o755
		}
		if err := os.MkdirAll(filepath.Join(root, dir.Path), os.FileMode(mode)); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir.Path, err)
		}
	}
	return nil
}

// Version is one entry of the versions directory.
type Version struct {
	ID          string
	Type        string
	ReleaseTime time.Time
	Installed   bool
}

// Catalog answers questions about the versions of one instance.
type Catalog struct {
	paths    *descriptor.Paths
	env      descriptor.Environment
	resolver *descriptor.Resolver
	logger   hclog.Logger
}

// NewCatalog returns a Catalog for paths, evaluating library rules in env.
func NewCatalog(paths *descriptor.Paths, env descriptor.Environment, logger hclog.Logger) *Catalog {
	logger = logger.Named("instance")
	return &Catalog{
		paths:    paths,
		env:      env,
		resolver: descriptor.NewResolver(paths, logger),
		logger:   logger,
	}
}

// IsInstalled reports whether id resolves, has a primary archive along its
// lineage and has at least 80% of its applicable libraries on disk.
func (c *Catalog) IsInstalled(id string) bool {
	d, err := c.resolver.Resolve(id)
	if err != nil {
		c.logger.Debug("🔍 Version does not resolve", "id", id, "error", err)
		return false
	}

	hasJar := false
	for _, jarID := range append([]string{d.JarID()}, d.Lineage...) {
		if isFile(c.paths.VersionJar(jarID)) {
			hasJar = true
			break
		}
	}
	if !hasJar {
		c.logger.Debug("🔍 Version has no primary archive", "id", id)
		return false
	}

	required, found := 0, 0
	for i := range d.Libraries {
		lib := &d.Libraries[i]
		if !lib.Included(c.env) {
			continue
		}
		path, counted := c.libraryArchive(lib)
		if !counted {
			continue
		}
		required++
		if isFile(c.paths.Library(path)) {
			found++
		}
	}
	if required == 0 {
		return true
	}
	ok := float64(found) >= float64(required)*installedRatio
	c.logger.Trace("📚 Library coverage", "id", id, "found", found, "required", required, "installed", ok)
	return ok
}

// libraryArchive returns the archive that must exist for lib. Libraries that
// only ship a legacy natives map are checked by their native archive for the
// current platform and not counted at all on other platforms.
func (c *Catalog) libraryArchive(lib *descriptor.Library) (string, bool) {
	if len(lib.Natives) > 0 && (lib.Downloads == nil || lib.Downloads.Artifact == nil) {
		path := lib.NativePath(c.env.Platform)
		return path, path != ""
	}
	return lib.ArtifactPath(), true
}

// List returns every version with a descriptor, newest first. With
// onlyInstalled, versions failing IsInstalled are left out.
func (c *Catalog) List(onlyInstalled bool) ([]Version, error) {
	entries, err := os.ReadDir(c.paths.Versions())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read versions directory: %w", err)
	}

	var versions []Version
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		d, err := descriptor.Load(c.paths.VersionJSON(id))
		if err != nil {
			continue
		}
		v := Version{ID: id, Type: d.Type, Installed: c.IsInstalled(id)}
		if t, err := time.Parse(time.RFC3339, d.ReleaseTime); err == nil {
			v.ReleaseTime = t
		}
		if onlyInstalled && !v.Installed {
			continue
		}
		versions = append(versions, v)
	}

	sort.SliceStable(versions, func(i, j int) bool {
		a, b := versions[i], versions[j]
		if !a.ReleaseTime.Equal(b.ReleaseTime) {
			return a.ReleaseTime.After(b.ReleaseTime)
		}
		return a.ID > b.ID
	})
	return versions, nil
}

// Latest returns the newest installed version.
func (c *Catalog) Latest() (string, error) {
	versions, err := c.List(true)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("no installed versions under %s", c.paths.Versions())
	}
	return versions[0].ID, nil
}

// ResolveAlias maps "latest" to the newest installed version and returns
// any other id unchanged.
func (c *Catalog) ResolveAlias(id string) (string, error) {
	if strings.EqualFold(id, LatestAlias) {
		return c.Latest()
	}
	return id, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

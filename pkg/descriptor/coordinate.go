// SPDX-License-Identifier: Apache-2.0
package descriptor

import (
	"path"
	"strings"

	"github.com/provide-io/craftlaunch/pkg/platform"
)

// Coordinate is a parsed group:artifact:version[:classifier][@extension] name.
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string
	Extension  string
}

// ParseCoordinate splits a Maven-style library name. ok is false when the
// name has fewer than three segments.
func ParseCoordinate(name string) (Coordinate, bool) {
	c := Coordinate{Extension: "jar"}
	if at := strings.LastIndex(name, "@"); at >= 0 {
		c.Extension = name[at+1:]
		name = name[:at]
	}

	parts := strings.Split(name, ":")
	if len(parts) < 3 {
		return Coordinate{}, false
	}
	c.Group, c.Artifact, c.Version = parts[0], parts[1], parts[2]
	if len(parts) > 3 {
		c.Classifier = strings.Join(parts[3:], ":")
	}
	return c, true
}

// Key is the group:artifact:version identity used for de-duplication.
func (c Coordinate) Key() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

// WithClassifier returns c with its classifier replaced.
func (c Coordinate) WithClassifier(classifier string) Coordinate {
	c.Classifier = classifier
	return c
}

// Path returns the slash-separated repository path, e.g.
// org/lwjgl/lwjgl/3.3.3/lwjgl-3.3.3-natives-linux.jar.
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	file += "." + c.Extension
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact, c.Version, file)
}

// MavenPath converts a library name to its repository-relative path.
// It returns "" for names that are not Maven coordinates.
func MavenPath(name string) string {
	c, ok := ParseCoordinate(name)
	if !ok {
		return ""
	}
	return c.Path()
}

// BaseName returns the merge key of the library: its group:artifact:version,
// or the raw name when it is not a coordinate.
func (l *Library) BaseName() string {
	if c, ok := ParseCoordinate(l.Name); ok {
		return c.Key()
	}
	return l.Name
}

// ArtifactPath returns the library-root-relative path of the main archive.
func (l *Library) ArtifactPath() string {
	if l.Downloads != nil && l.Downloads.Artifact != nil && l.Downloads.Artifact.Path != "" {
		return l.Downloads.Artifact.Path
	}
	return MavenPath(l.Name)
}

// NativeClassifier returns the native classifier this library carries for p,
// or "" when it is not a native library on p. The returned classifier has any
// legacy ${arch} token already expanded.
func (l *Library) NativeClassifier(p platform.Platform) string {
	if c, ok := ParseCoordinate(l.Name); ok {
		for _, dir := range p.NativeDirs() {
			if strings.HasPrefix(c.Classifier, "natives-"+dir) {
				return c.Classifier
			}
		}
	}
	for _, dir := range p.NativeDirs() {
		if classifier, ok := l.Natives[dir]; ok && classifier != "" {
			return strings.ReplaceAll(classifier, "${arch}", p.Bitness())
		}
	}
	return ""
}

// IsNative reports whether the library contributes native binaries on p.
func (l *Library) IsNative(p platform.Platform) bool {
	return l.NativeClassifier(p) != ""
}

// HasNativeClassifier reports whether the library is native for any platform.
// Such libraries never belong on the classpath.
func (l *Library) HasNativeClassifier() bool {
	return strings.Contains(l.Name, ":natives-") || len(l.Natives) > 0
}

// NativePath returns the library-root-relative path of the native archive for p.
func (l *Library) NativePath(p platform.Platform) string {
	classifier := l.NativeClassifier(p)
	if classifier == "" {
		return ""
	}
	if l.Downloads != nil {
		if a := l.Downloads.Classifiers[classifier]; a != nil && a.Path != "" {
			return a.Path
		}
		if strings.Contains(l.Name, ":natives-") && l.Downloads.Artifact != nil && l.Downloads.Artifact.Path != "" {
			return l.Downloads.Artifact.Path
		}
	}
	c, ok := ParseCoordinate(l.Name)
	if !ok {
		return ""
	}
	return c.WithClassifier(classifier).Path()
}

// SPDX-License-Identifier: Apache-2.0
// Package platform names the host the way version descriptors do.
package platform

import (
	"runtime"
	"strings"
)

// Operating system names as they appear in descriptor rules and native classifiers.
const (
	Windows = "windows"
	Linux   = "linux"
	OSX     = "osx"
)

// Architecture names used for native archive prefixes.
const (
	X64   = "x64"
	X86   = "x86"
	ARM64 = "arm64"
)

// Platform identifies an operating system and CPU architecture pair.
type Platform struct {
	OS   string
	Arch string
}

// Current returns the platform of the running process.
func Current() Platform {
	return FromGo(runtime.GOOS, runtime.GOARCH)
}

// FromGo maps Go's GOOS/GOARCH values to descriptor names.
func FromGo(goos, goarch string) Platform {
	return Platform{OS: osName(goos), Arch: archName(goarch)}
}

func osName(goos string) string {
	switch goos {
	case "windows":
		return Windows
	case "darwin":
		return OSX
	default:
		return Linux
	}
}

func archName(goarch string) string {
	switch strings.ToLower(goarch) {
	case "amd64", "x86_64":
		return X64
	case "386", "i386", "i686":
		return X86
	case "arm64", "aarch64":
		return ARM64
	default:
		return X64
	}
}

// String returns "os/arch".
func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// IsWindows reports whether p is a Windows platform.
func (p Platform) IsWindows() bool {
	return p.OS == Windows
}

// NativeDirs returns the top-level directory names native archives use for this OS.
func (p Platform) NativeDirs() []string {
	if p.OS == OSX {
		return []string{OSX, "macos"}
	}
	return []string{p.OS}
}

// NativeExtensions returns the shared-library file extensions for this OS.
func (p Platform) NativeExtensions() []string {
	switch p.OS {
	case Windows:
		return []string{".dll"}
	case OSX:
		return []string{".dylib", ".jnilib"}
	default:
		return []string{".so"}
	}
}

// HasNativeExtension reports whether name ends in one of NativeExtensions.
func (p Platform) HasNativeExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range p.NativeExtensions() {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// PathListSeparator returns the separator the JVM expects between classpath entries.
func (p Platform) PathListSeparator() string {
	if p.IsWindows() {
		return ";"
	}
	return ":"
}

// CaseInsensitiveFS reports whether paths on this platform compare case-insensitively.
func (p Platform) CaseInsensitiveFS() bool {
	return p.OS == Windows || p.OS == OSX
}

// ExecutableName appends the platform's executable suffix to name.
func (p Platform) ExecutableName(name string) string {
	if p.IsWindows() && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

// Bitness returns "64" or "32", the value legacy classifiers use for ${arch}.
func (p Platform) Bitness() string {
	if p.Arch == X86 {
		return "32"
	}
	return "64"
}

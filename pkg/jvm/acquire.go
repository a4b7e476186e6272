// SPDX-License-Identifier: Apache-2.0
package jvm

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/provide-io/craftlaunch/pkg/lockfile"
	"github.com/provide-io/craftlaunch/pkg/platform"
)

// DefaultAdoptiumURL is the public Adoptium API.
const DefaultAdoptiumURL = "https://api.adoptium.net"

// DefaultMinFreeSpace is the free space required before a runtime download.
const DefaultMinFreeSpace = 512 << 20

var (
	// ErrBadArchive is returned for runtime archives that are unsafe or lack a java binary.
	ErrBadArchive = errors.New("❌ invalid runtime archive")
	// ErrInsufficientSpace is returned when the runtime root is nearly full.
	ErrInsufficientSpace = errors.New("❌ insufficient disk space for runtime")
)

// AdoptiumAcquirer downloads Temurin JDKs into the vendored runtime root,
// where the Registry finds them on later launches.
type AdoptiumAcquirer struct {
	BaseURL     string
	InstallRoot string
	LockTimeout time.Duration
	// MinFreeSpace in bytes; zero disables the check.
	MinFreeSpace int64

	platform platform.Platform
	client   *retryablehttp.Client
	logger   hclog.Logger
}

// NewAdoptiumAcquirer returns an acquirer installing under installRoot.
func NewAdoptiumAcquirer(installRoot string, p platform.Platform, logger hclog.Logger) *AdoptiumAcquirer {
	logger = logger.Named("acquire")

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = logger

	return &AdoptiumAcquirer{
		BaseURL:      DefaultAdoptiumURL,
		InstallRoot:  installRoot,
		LockTimeout:  10 * time.Minute,
		MinFreeSpace: DefaultMinFreeSpace,
		platform:     p,
		client:       client,
		logger:       logger,
	}
}

// InstallDir returns the directory a runtime of major is installed to.
func (a *AdoptiumAcquirer) InstallDir(major int) string {
	return filepath.Join(a.InstallRoot, fmt.Sprintf("java-runtime-%d", major))
}

// Executable returns the java binary of an installed runtime.
func (a *AdoptiumAcquirer) Executable(major int) string {
	return filepath.Join(a.InstallDir(major), "bin", a.platform.ExecutableName("java"))
}

// DownloadURL returns the Adoptium binary endpoint for major on this platform.
func (a *AdoptiumAcquirer) DownloadURL(major int) string {
	osName := map[string]string{platform.Windows: "windows", platform.OSX: "mac"}[a.platform.OS]
	if osName == "" {
		osName = "linux"
	}
	arch := map[string]string{platform.ARM64: "aarch64", platform.X86: "x32"}[a.platform.Arch]
	if arch == "" {
		arch = "x64"
	}
	return fmt.Sprintf("%s/v3/binary/latest/%d/ga/%s/%s/jdk/hotspot/normal/eclipse",
		strings.TrimSuffix(a.BaseURL, "/"), major, osName, arch)
}

// Acquire installs the runtime unless it is already present.
func (a *AdoptiumAcquirer) Acquire(ctx context.Context, major int) (string, error) {
	exe := a.Executable(major)
	if fileExists(exe) {
		a.logger.Debug("✅ Runtime already installed", "major", major, "path", exe)
		return exe, nil
	}

	lockPath := filepath.Join(a.InstallRoot, fmt.Sprintf(".java-runtime-%d.lock", major))
	for {
		acquired, err := lockfile.TryAcquire(lockPath, a.logger)
		if err != nil {
			return "", fmt.Errorf("failed to lock runtime install: %w", err)
		}
		if acquired {
			break
		}
		waitCtx, cancel := context.WithTimeout(ctx, a.LockTimeout)
		err = lockfile.Wait(waitCtx, lockPath, a.logger)
		cancel()
		if err != nil {
			return "", err
		}
		if fileExists(exe) {
			return exe, nil
		}
	}
	defer lockfile.Release(lockPath, a.logger)

	if err := a.install(ctx, major); err != nil {
		return "", err
	}
	if !fileExists(exe) {
		return "", fmt.Errorf("%w: %s missing after install", ErrBadArchive, exe)
	}
	a.logger.Info("✅ Installed runtime", "major", major, "path", exe)
	return exe, nil
}

func (a *AdoptiumAcquirer) install(ctx context.Context, major int) error {
	if err := os.MkdirAll(a.InstallRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create runtime root: %w", err)
	}
	if err := a.checkDiskSpace(); err != nil {
		return err
	}

	url := a.DownloadURL(major)
	a.logger.Info("📥 Downloading runtime", "major", major, "url", url)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download runtime %d: %w", major, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download runtime %d: HTTP %d", major, resp.StatusCode)
	}

	archive, err := os.CreateTemp(a.InstallRoot, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create download file: %w", err)
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	n, err := io.Copy(archive, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to save runtime archive: %w", err)
	}
	a.logger.Debug("📦 Downloaded runtime archive", "bytes", n)

	staging, err := os.MkdirTemp(a.InstallRoot, ".staging-*")
	if err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	if a.platform.IsWindows() {
		err = extractZip(archive, n, staging)
	} else {
		if _, err = archive.Seek(0, io.SeekStart); err == nil {
			err = extractTarGz(archive, staging)
		}
	}
	if err != nil {
		return err
	}

	home, err := findJavaHome(staging, a.platform.ExecutableName("java"))
	if err != nil {
		return err
	}

	dest := a.InstallDir(major)
	os.RemoveAll(dest)
	if err := os.Rename(home, dest); err != nil {
		return fmt.Errorf("failed to move runtime into place: %w", err)
	}
	return nil
}

func (a *AdoptiumAcquirer) checkDiskSpace() error {
	if a.MinFreeSpace <= 0 {
		return nil
	}
	available, err := availableDiskSpace(a.InstallRoot)
	if err != nil {
		a.logger.Warn("⚠️ Could not check free disk space", "path", a.InstallRoot, "error", err)
		return nil
	}
	a.logger.Debug("💾 Free disk space", "path", a.InstallRoot, "available_mb", available>>20)
	if available < a.MinFreeSpace {
		return fmt.Errorf("%w: %d MB free under %s, need %d MB",
			ErrInsufficientSpace, available>>20, a.InstallRoot, a.MinFreeSpace>>20)
	}
	return nil
}

// safeJoin joins an archive entry name to dest, rejecting escapes.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: entry %q escapes archive root", ErrBadArchive, name)
	}
	return target, nil
}

func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadArchive, err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				continue
			}
			if _, err := safeJoin(filepath.Dir(target), hdr.Linkname); err != nil {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil && !os.IsExist(err) {
				return err
			}
		}
	}
}

func extractZip(f *os.File, size int64, dest string) error {
	zr, err := zip.NewReader(f, size)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	for _, entry := range zr.File {
		target, err := safeJoin(dest, entry.Name)
		if err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadArchive, err)
		}
		err = writeFile(target, rc, entry.Mode().Perm()|0o600)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// findJavaHome locates the directory whose bin/ holds the java executable,
// choosing the shallowest match (archives wrap the JDK in one or two levels).
func findJavaHome(root, exe string) (string, error) {
	var (
		mu   sync.Mutex
		best string
	)
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != exe || filepath.Base(filepath.Dir(path)) != "bin" {
			return nil
		}
		home := filepath.Dir(filepath.Dir(path))
		mu.Lock()
		if best == "" || len(home) < len(best) {
			best = home
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to scan runtime archive: %w", err)
	}
	if best == "" {
		return "", fmt.Errorf("%w: no bin/%s inside", ErrBadArchive, exe)
	}
	return best, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

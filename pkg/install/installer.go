// Package install implements the package lifecycle on the shared volume:
// the install pipeline (lock, fetch, verify, extract, script, symlink,
// record), strictly-newer upgrades, and restore-safe uninstalls.
//
// Atomicity is best-effort at the lock granularity. An install either ends
// with the package fully recorded or fails with the lock released and the
// temp directory removed; binaries linked before a mid-run failure stay in
// place so a retry with force can finish the job.
package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"diem/internal/config"
	"diem/internal/executor"
	"diem/internal/fsutil"
	"diem/internal/perms"
	"diem/pkg/cache"
	"diem/pkg/fetch"
	"diem/pkg/registry"
)

// Catalog is the registry view the installer consumes.
type Catalog interface {
	PackageInfo(ref registry.PackageReference) (*registry.Package, error)
	LatestVersion(ref registry.PackageReference) (string, error)
}

// Installer drives the install and upgrade pipelines for the calling
// user's namespace.
type Installer struct {
	paths    *config.Paths
	catalog  Catalog
	exec     *executor.Executor
	fetcher  *fetch.Fetcher
	cache    *cache.Store
	metadata *Metadata
}

// Option configures an Installer.
type Option func(*Installer)

// WithCache enables the scratch-space artifact cache.
func WithCache(store *cache.Store) Option {
	return func(i *Installer) { i.cache = store }
}

// WithExecutor replaces the subprocess runner.
func WithExecutor(exec *executor.Executor) Option {
	return func(i *Installer) { i.exec = exec }
}

// WithFetcher replaces the artifact fetcher.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(i *Installer) { i.fetcher = f }
}

// New builds an installer and loads the installation metadata.
func New(paths *config.Paths, catalog Catalog, opts ...Option) (*Installer, error) {
	metadata, err := LoadMetadata(paths.MetadataPath())
	if err != nil {
		return nil, err
	}

	inst := &Installer{
		paths:    paths,
		catalog:  catalog,
		exec:     executor.New(false),
		fetcher:  fetch.New(),
		metadata: metadata,
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst, nil
}

// Metadata exposes the loaded installation records.
func (i *Installer) Metadata() *Metadata { return i.metadata }

// Install runs the full pipeline for one resolved package.
func (i *Installer) Install(ctx context.Context, pkg *registry.Package, force bool) error {
	if err := pkg.Validate(); err != nil {
		return err
	}

	ref := pkg.Reference()
	targetDir := i.paths.PackageDir(ref.DirName())

	// Nothing is mutated until both write targets check out.
	if err := i.checkWritable(i.paths.PackagesDir()); err != nil {
		return err
	}
	if err := i.checkWritable(i.paths.BinDir()); err != nil {
		return err
	}

	lock, err := Acquire(i.paths.LocksDir(), pkg.Name)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warn("failed to release install lock", "package", pkg.Name, "err", err)
		}
	}()

	log.Info("installing package", "package", ref.String(), "version", pkg.Version)

	if err := fsutil.EnsureDir(targetDir); err != nil {
		return fmt.Errorf("failed to create package directory: %w", err)
	}
	if err := fsutil.EnsureDir(i.paths.BinDir()); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}
	if err := fsutil.EnsureDir(i.paths.TempRoot()); err != nil {
		return fmt.Errorf("failed to create temp root: %w", err)
	}
	tmpDir, err := os.MkdirTemp(i.paths.TempRoot(), "diem-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if pkg.URL != "" {
		archive, err := i.fetchArchive(ctx, pkg, tmpDir)
		if err != nil {
			return err
		}
		if err := i.extract(ctx, archive, targetDir); err != nil {
			return err
		}
	}

	// The installed tree carries its own manifest copy so uninstall can
	// work from local state alone.
	if err := registry.WriteManifest(filepath.Join(targetDir, registry.ManifestName), pkg); err != nil {
		return fmt.Errorf("failed to write installed manifest: %w", err)
	}

	if pkg.InstallScript != "" {
		if err := i.runScript(ctx, pkg, targetDir, tmpDir); err != nil {
			return err
		}
	}

	created, err := i.linkBinaries(pkg, targetDir, force)
	if err != nil {
		return err
	}

	// Files is the uninstaller's complete removal list: every symlink
	// plus the package directory itself.
	i.metadata.Set(pkg.Name, Record{
		InstalledVersion: pkg.Version,
		InstalledFrom:    pkg.Provider,
		InstallDate:      time.Now().UTC(),
		Files:            append(created, targetDir),
	})
	if err := i.metadata.Save(); err != nil {
		return err
	}

	log.Info("installed package", "package", ref.String(), "version", pkg.Version)
	return nil
}

// checkWritable validates permissions on the nearest existing ancestor, so
// a first install into a not-yet-created namespace still answers for the
// volume it will write to.
func (i *Installer) checkWritable(path string) error {
	probe := path
	for {
		if fsutil.Exists(probe) {
			return perms.CheckDirectory(probe, true)
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			return perms.CheckDirectory(probe, true)
		}
		probe = parent
	}
}

// linkBinaries symlinks each declared binary into the shared bin directory
// and marks the sources executable. On a collision without force it stops
// at the colliding binary; links created earlier in the run are kept.
func (i *Installer) linkBinaries(pkg *registry.Package, targetDir string, force bool) ([]string, error) {
	var created []string
	for _, binary := range pkg.Binaries {
		source := filepath.Join(targetDir, binary)
		link := filepath.Join(i.paths.BinDir(), binary)

		if fsutil.Exists(link) {
			if !force {
				return created, &BinaryExistsError{Binary: binary, Link: link}
			}
			if err := os.Remove(link); err != nil {
				return created, fmt.Errorf("failed to replace %s: %w", link, err)
			}
		}

		if err := fsutil.EnsureDir(filepath.Dir(link)); err != nil {
			return created, err
		}
		if err := os.Symlink(source, link); err != nil {
			return created, fmt.Errorf("failed to link %s: %w", binary, err)
		}
		if err := os.Chmod(source, 0755); err != nil {
			return created, fmt.Errorf("failed to mark %s executable: %w", binary, err)
		}
		created = append(created, link)
		log.Debug("linked binary", "binary", binary, "link", link)
	}
	return created, nil
}

// extract unpacks an archive into the target directory, stripping the
// leading path component.
func (i *Installer) extract(ctx context.Context, archive, dest string) error {
	stderr, err := i.exec.Run(ctx, "tar", "--strip-components=1", "-xzf", archive, "-C", dest)
	if err != nil {
		return &ExtractError{Archive: archive, Stderr: strings.TrimSpace(stderr)}
	}
	return nil
}

package install

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"diem/internal/config"
	"diem/pkg/cache"
	"diem/pkg/registry"
)

// Uninstaller removes installed packages. Every destructive step runs
// behind a snapshot of the package directory: a failure mid-removal
// restores the tree and surfaces the original error, unless the restore
// itself fails, in which case the restore error wins.
type Uninstaller struct {
	paths    *config.Paths
	cache    *cache.Store
	metadata *Metadata
}

// NewUninstaller builds an uninstaller sharing the installer's metadata.
// The cache store may be nil when caching is disabled.
func NewUninstaller(paths *config.Paths, store *cache.Store, metadata *Metadata) *Uninstaller {
	return &Uninstaller{paths: paths, cache: store, metadata: metadata}
}

// Uninstall removes one installed package: its bin symlinks, its package
// tree, its scratch cache, and its metadata record.
func (u *Uninstaller) Uninstall(ref registry.PackageReference) error {
	dir := u.paths.PackageDir(ref.DirName())

	pkg, err := registry.LoadManifest(filepath.Join(dir, registry.ManifestName))
	if err != nil {
		if os.IsNotExist(err) {
			return &registry.NotFoundError{Name: ref.Name, Provider: ref.Provider}
		}
		return err
	}

	log.Info("uninstalling package", "package", ref.String(), "version", pkg.Version)

	backup, err := snapshotDir(dir, pkg.Version)
	if err != nil {
		return err
	}

	if err := u.remove(pkg, ref, dir); err != nil {
		log.Warn("uninstall failed, restoring from backup", "package", ref.String(), "err", err)
		if restoreErr := restoreDir(backup, dir); restoreErr != nil {
			// The package is now in an unknown state; that outranks the
			// failure that triggered the restore.
			return restoreErr
		}
		return err
	}

	if err := os.RemoveAll(backup); err != nil {
		log.Warn("failed to clean up backup", "path", backup, "err", err)
	}

	log.Info("uninstalled package", "package", ref.String())
	return nil
}

// remove performs the destructive steps in order. Individual symlink
// failures are logged and skipped; everything else aborts.
//
// The metadata record's file list is authoritative: nothing outside it is
// removed. A missing record falls back to the manifest's declared
// binaries.
func (u *Uninstaller) remove(pkg *registry.Package, ref registry.PackageReference, dir string) error {
	files := u.removalList(pkg, ref, dir)

	for _, path := range files {
		if path == dir {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove file", "path", path, "err", err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove package directory: %w", err)
	}

	if u.cache != nil {
		if err := u.cache.RemovePackage(ref.DirName()); err != nil {
			return fmt.Errorf("failed to remove cached artifacts: %w", err)
		}
	}

	u.metadata.Remove(pkg.Name)
	return u.metadata.Save()
}

func (u *Uninstaller) removalList(pkg *registry.Package, ref registry.PackageReference, dir string) []string {
	if rec, ok := u.metadata.Get(ref.Name); ok && len(rec.Files) > 0 {
		return rec.Files
	}
	files := make([]string, 0, len(pkg.Binaries)+1)
	for _, binary := range pkg.Binaries {
		files = append(files, filepath.Join(u.paths.BinDir(), binary))
	}
	return append(files, dir)
}

package install

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"diem/pkg/integrity"
	"diem/pkg/registry"
)

// fetchArchive obtains the package artifact, preferring the scratch cache
// when the manifest declares a checksum. Downloads are hashed as the bytes
// stream in; checksum and signature verification happen before the
// artifact is handed to extraction or admitted to the cache.
func (i *Installer) fetchArchive(ctx context.Context, pkg *registry.Package, tmpDir string) (string, error) {
	if path, ok := i.cachedArchive(pkg); ok {
		return path, nil
	}

	dest := filepath.Join(tmpDir, "package.tar.gz")
	result, err := i.fetcher.Download(ctx, pkg.URL, dest)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", pkg.Name, err)
	}

	if pkg.Checksum != "" {
		if want := integrity.NormalizeChecksum(pkg.Checksum); result.Checksum != want {
			return "", &integrity.ChecksumMismatchError{Expected: want, Actual: result.Checksum}
		}
	}

	if pkg.Signature != "" && pkg.PublicKey != "" {
		if err := integrity.VerifyFileSignature(dest, pkg.Signature, pkg.PublicKey); err != nil {
			return "", err
		}
	}

	if i.cache != nil && pkg.Checksum != "" {
		if _, err := i.cache.Put(pkg, pkg.Checksum, dest); err != nil {
			log.Warn("failed to cache artifact", "package", pkg.Key(), "err", err)
		}
	}
	return dest, nil
}

// cachedArchive returns a cache hit only after the blob passes the same
// verification a fresh download would. A failing blob is ignored, not an
// error; the download path takes over. Scratch volumes get wiped and
// mangled, so the ledger is never trusted blindly.
func (i *Installer) cachedArchive(pkg *registry.Package) (string, bool) {
	if i.cache == nil || pkg.Checksum == "" {
		return "", false
	}
	path, ok := i.cache.Get(pkg.Checksum)
	if !ok {
		return "", false
	}

	sum, err := integrity.FileChecksum(path)
	if err != nil || sum != integrity.NormalizeChecksum(pkg.Checksum) {
		return "", false
	}
	if pkg.Signature != "" && pkg.PublicKey != "" {
		if err := integrity.VerifyFileSignature(path, pkg.Signature, pkg.PublicKey); err != nil {
			log.Warn("cached artifact failed signature check", "package", pkg.Key(), "err", err)
			return "", false
		}
	}

	log.Debug("using cached artifact", "package", pkg.Key(), "path", path)
	return path, true
}

package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"diem/internal/executor"
	"diem/internal/fsutil"
	"diem/pkg/integrity"
)

// Publisher writes new package versions into the caller's own repository
// tree. A (name, version) pair is write-once: publishing it again is a
// conflict, never an overwrite.
type Publisher struct {
	repo *Repository
	exec *executor.Executor
}

// NewPublisher binds a publisher to one repository.
func NewPublisher(repo *Repository, exec *executor.Executor) *Publisher {
	return &Publisher{repo: repo, exec: exec}
}

// Publish packages srcDir, whose manifest names and versions it, into the
// repository: the content is archived under packages/, the manifest is
// recorded per-version and, when this version is the newest, as the
// current manifest, and the index gains the version.
func (p *Publisher) Publish(ctx context.Context, srcDir string) (*Package, error) {
	pkg, err := LoadManifest(filepath.Join(srcDir, ManifestName))
	if err != nil {
		return nil, err
	}

	if pkg.Provider != "" && pkg.Provider != p.repo.Provider {
		return nil, fmt.Errorf("%w: manifest provider %q does not match repository %q",
			ErrInvalidManifest, pkg.Provider, p.repo.Provider)
	}
	pkg.Provider = p.repo.Provider
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	for _, binary := range pkg.Binaries {
		if !fsutil.Exists(filepath.Join(srcDir, binary)) {
			return nil, fmt.Errorf("%w: declared binary %q is not in %s", ErrInvalidManifest, binary, srcDir)
		}
	}

	artifact := p.repo.ArtifactPath(pkg.Name, pkg.Version)
	versioned := p.repo.VersionManifestPath(pkg.Name, pkg.Version)
	if fsutil.Exists(artifact) || fsutil.Exists(versioned) {
		return nil, fmt.Errorf("%w: %s@%s", ErrVersionExists, pkg.Name, pkg.Version)
	}

	if err := fsutil.EnsureDir(filepath.Dir(artifact)); err != nil {
		return nil, err
	}
	if err := fsutil.EnsureDir(filepath.Dir(versioned)); err != nil {
		return nil, err
	}

	if err := p.archive(ctx, srcDir, artifact); err != nil {
		return nil, err
	}

	sum, err := integrity.FileChecksum(artifact)
	if err != nil {
		os.Remove(artifact)
		return nil, err
	}

	// A manifest without a URL is served from this repository; one with a
	// URL points at external hosting and keeps its own integrity fields.
	if pkg.URL == "" {
		pkg.URL = artifact
		pkg.Checksum = sum
	}

	if err := WriteManifest(versioned, pkg); err != nil {
		os.Remove(artifact)
		return nil, err
	}

	if err := p.updateCurrent(pkg); err != nil {
		os.Remove(versioned)
		os.Remove(artifact)
		return nil, err
	}
	if err := p.updateIndex(pkg); err != nil {
		os.Remove(versioned)
		os.Remove(artifact)
		return nil, err
	}

	log.Info("published package", "package", pkg.Key(), "artifact", artifact)
	return pkg, nil
}

// archive produces the tarball with the source directory as its single
// leading path component, matching what extraction strips.
func (p *Publisher) archive(ctx context.Context, srcDir, artifact string) error {
	parent := filepath.Dir(srcDir)
	base := filepath.Base(srcDir)

	stderr, err := p.exec.Run(ctx, "tar", "-czf", artifact, "-C", parent, base)
	if err != nil {
		os.Remove(artifact)
		if stderr != "" {
			return fmt.Errorf("failed to archive %s: %v: %s", srcDir, err, stderr)
		}
		return fmt.Errorf("failed to archive %s: %w", srcDir, err)
	}
	return nil
}

// updateCurrent replaces the current manifest only when the published
// version is at least as new; backfilling an old version leaves it alone.
func (p *Publisher) updateCurrent(pkg *Package) error {
	current, err := p.repo.Manifest(pkg.Name)
	if err == nil {
		have, haveErr := semver.NewVersion(current.Version)
		next, nextErr := semver.NewVersion(pkg.Version)
		if haveErr == nil && nextErr == nil && next.LessThan(have) {
			return nil
		}
	}
	return WriteManifest(p.repo.ManifestPath(pkg.Name), pkg)
}

func (p *Publisher) updateIndex(pkg *Package) error {
	idx, err := p.repo.LoadIndex()
	if err != nil {
		return err
	}

	entry := idx.Packages[pkg.Name]
	if !slices.Contains(entry.Versions, pkg.Version) {
		entry.Versions = append(entry.Versions, pkg.Version)
		sortVersions(entry.Versions)
	}
	latest, err := maxVersion(entry.Versions)
	if err != nil {
		return err
	}
	entry.Latest = latest
	idx.Packages[pkg.Name] = entry

	return p.repo.SaveIndex(idx)
}

// sortVersions orders semver-ascending, leaving unparseable entries where
// string order puts them.
func sortVersions(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		a, errA := semver.NewVersion(versions[i])
		b, errB := semver.NewVersion(versions[j])
		if errA != nil || errB != nil {
			return versions[i] < versions[j]
		}
		return a.LessThan(b)
	})
}

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"
)

// Repository is one provider's publish tree on the shared volume:
//
//	repository/
//	  packages/<name>/<name>-<version>.tar.gz
//	  metadata/<name>/package.json            current manifest
//	  metadata/<name>/<name>-<version>.json   immutable per-version copies
//	  index/packages.toml
type Repository struct {
	Provider string
	Root     string
}

// NewRepository binds a provider name to its repository root.
func NewRepository(provider, root string) *Repository {
	return &Repository{Provider: provider, Root: root}
}

// Exists reports whether the repository tree is present on the volume.
func (r *Repository) Exists() bool {
	info, err := os.Stat(r.Root)
	return err == nil && info.IsDir()
}

func (r *Repository) metadataDir() string {
	return filepath.Join(r.Root, "metadata")
}

// ManifestPath returns the current manifest location for a package name.
func (r *Repository) ManifestPath(name string) string {
	return filepath.Join(r.metadataDir(), name, ManifestName)
}

// VersionManifestPath returns the immutable per-version manifest copy.
func (r *Repository) VersionManifestPath(name, version string) string {
	return filepath.Join(r.metadataDir(), name, fmt.Sprintf("%s-%s.json", name, version))
}

// ArtifactPath returns where a version's tarball is stored.
func (r *Repository) ArtifactPath(name, version string) string {
	return filepath.Join(r.Root, "packages", name, fmt.Sprintf("%s-%s.tar.gz", name, version))
}

// IndexPath returns the repository index file.
func (r *Repository) IndexPath() string {
	return filepath.Join(r.Root, "index", "packages.toml")
}

// Manifest loads the current manifest for name, injecting the provider when
// the file omits it.
func (r *Repository) Manifest(name string) (*Package, error) {
	path := r.ManifestPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &NotFoundError{Name: name, Provider: r.Provider}
	}
	pkg, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if pkg.Provider == "" {
		pkg.Provider = r.Provider
	}
	return pkg, nil
}

// List enumerates every package published in this repository. Malformed
// entries are logged and skipped rather than failing the listing.
func (r *Repository) List() ([]*Package, error) {
	entries, err := os.ReadDir(r.metadataDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var pkgs []*Package
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pkg, err := r.Manifest(entry.Name())
		if err != nil {
			log.Warn("skipping malformed package entry",
				"provider", r.Provider, "package", entry.Name(), "err", err)
			continue
		}
		pkgs = append(pkgs, pkg)
	}

	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs, nil
}

// Index maps package names to their published versions.
type Index struct {
	Packages map[string]IndexEntry `toml:"packages"`
}

// IndexEntry records the published versions of one package.
type IndexEntry struct {
	Latest   string   `toml:"latest"`
	Versions []string `toml:"versions"`
}

// LoadIndex reads the repository index; a missing file is an empty index.
func (r *Repository) LoadIndex() (*Index, error) {
	idx := &Index{Packages: map[string]IndexEntry{}}

	path := r.IndexPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return idx, nil
	}
	if _, err := toml.DecodeFile(path, idx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if idx.Packages == nil {
		idx.Packages = map[string]IndexEntry{}
	}
	return idx, nil
}

// SaveIndex writes the index back to the repository.
func (r *Repository) SaveIndex(idx *Index) error {
	path := r.IndexPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(idx)
}

// LatestVersion returns the newest published version of name by semantic
// version order.
func (r *Repository) LatestVersion(name string) (string, error) {
	idx, err := r.LoadIndex()
	if err != nil {
		return "", err
	}
	entry, ok := idx.Packages[name]
	if !ok || len(entry.Versions) == 0 {
		return "", &NotFoundError{Name: name, Provider: r.Provider}
	}
	if entry.Latest != "" {
		return entry.Latest, nil
	}
	return maxVersion(entry.Versions)
}

// maxVersion picks the semver-greatest of a non-empty version list.
func maxVersion(versions []string) (string, error) {
	var best *semver.Version
	var raw string
	for _, v := range versions {
		parsed, err := semver.NewVersion(v)
		if err != nil {
			return "", fmt.Errorf("%w: version %q: %v", ErrInvalidConfig, v, err)
		}
		if best == nil || parsed.GreaterThan(best) {
			best = parsed
			raw = v
		}
	}
	return raw, nil
}

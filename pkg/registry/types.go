package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
)

// ManifestName is the per-package manifest file name.
const ManifestName = "package.json"

// Package is the manifest describing one published package version.
// Once published under a (provider, name, version) key it is immutable.
type Package struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Provider    string `json:"provider,omitempty"`
	Description string `json:"description,omitempty"`

	// Binaries are symlinked into the shared bin directory on install.
	Binaries []string `json:"binaries,omitempty"`

	// InstallScript is shell source, run sandboxed inside the package
	// directory after extraction.
	InstallScript string `json:"install_script,omitempty"`

	// URL is the artifact source: http(s), or an absolute path on the
	// shared volume for locally published packages.
	URL       string `json:"url,omitempty"`
	Checksum  string `json:"checksum,omitempty"`
	Signature string `json:"signature,omitempty"`
	PublicKey string `json:"public_key,omitempty"`

	Dependencies         []string          `json:"dependencies,omitempty"`
	OptionalDependencies []string          `json:"optional_dependencies,omitempty"`
	PeerDependencies     []string          `json:"peer_dependencies,omitempty"`
	Engines              map[string]string `json:"engines,omitempty"`

	// OS and CPU restrict the platforms the package installs on.
	// Empty means unconstrained.
	OS  []string `json:"os,omitempty"`
	CPU []string `json:"cpu,omitempty"`
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pkg Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}
	if pkg.Name == "" || pkg.Version == "" {
		return nil, fmt.Errorf("%w: %s: name and version are required", ErrInvalidManifest, path)
	}
	return &pkg, nil
}

// WriteManifest serializes a manifest to path.
func WriteManifest(path string, pkg *Package) error {
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// Reference returns the addressing pair for this package.
func (p *Package) Reference() PackageReference {
	return PackageReference{Provider: p.Provider, Name: p.Name}
}

// Key identifies this exact package version during resolution.
func (p *Package) Key() string {
	return fmt.Sprintf("%s:%s@%s", p.Provider, p.Name, p.Version)
}

// Validate checks the fields a manifest must get right before publishing.
func (p *Package) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	if p.Provider != "" {
		if err := ValidateName(p.Provider); err != nil {
			return err
		}
	}
	if _, err := semver.NewVersion(p.Version); err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrInvalidManifest, p.Version, err)
	}
	for _, bin := range p.Binaries {
		if !isSafeRelPath(bin) {
			return fmt.Errorf("%w: binary path %q", ErrInvalidManifest, bin)
		}
	}
	return nil
}

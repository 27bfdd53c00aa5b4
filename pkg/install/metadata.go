package install

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

// Record is one package's installation metadata.
type Record struct {
	InstalledVersion string    `toml:"installed_version"`
	InstalledFrom    string    `toml:"installed_from"`
	InstallDate      time.Time `toml:"install_date"`
	Files            []string  `toml:"files"`
}

// Metadata is the installed-packages map, keyed by package name. The
// backing file is read fully and rewritten in full on every change;
// cross-process serialization is the install lock's job, not this file's.
type Metadata struct {
	path     string
	packages map[string]Record
}

// LoadMetadata reads the metadata file, treating a missing file as an
// empty map.
func LoadMetadata(path string) (*Metadata, error) {
	m := &Metadata{path: path, packages: make(map[string]Record)}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return m, nil
	}
	if _, err := toml.DecodeFile(path, &m.packages); err != nil {
		return nil, fmt.Errorf("failed to parse installation metadata: %w", err)
	}
	return m, nil
}

// Get returns the record for a package name.
func (m *Metadata) Get(name string) (Record, bool) {
	rec, ok := m.packages[name]
	return rec, ok
}

// Set records or replaces a package's installation metadata in memory.
func (m *Metadata) Set(name string, rec Record) {
	m.packages[name] = rec
}

// Remove drops a package's record in memory.
func (m *Metadata) Remove(name string) {
	delete(m.packages, name)
}

// Has reports whether a package has an installation record.
func (m *Metadata) Has(name string) bool {
	_, ok := m.packages[name]
	return ok
}

// Names returns the recorded package names, sorted.
func (m *Metadata) Names() []string {
	names := make([]string, 0, len(m.packages))
	for name := range m.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of recorded packages.
func (m *Metadata) Len() int {
	return len(m.packages)
}

// Save rewrites the metadata file in full.
func (m *Metadata) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	f, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("failed to write installation metadata: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(m.packages); err != nil {
		return fmt.Errorf("failed to encode installation metadata: %w", err)
	}
	return nil
}

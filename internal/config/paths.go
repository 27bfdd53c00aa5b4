package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

const (
	appName      = "diem"
	configFile   = "config.toml"
	registryFile = "registry.json"
	historyFile  = "history.db"

	// namespaceDir is the subdirectory of a user's share-volume home that
	// diem owns, both as install target and as publish target.
	namespaceDir = "diem"

	metadataFile = "installed_packages.toml"
	cacheDBFile  = "cache.db"
)

// ConfigDir returns the platform-specific configuration directory for diem.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), appName)
	default: // linux and others
		// Respect XDG_CONFIG_HOME if set
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, ".config", appName)
	}
}

// DataDir returns the platform-specific data directory for diem.
func DataDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, "Library", "Application Support", appName)
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), appName)
	default: // linux and others
		// Respect XDG_DATA_HOME if set
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName)
		}
		home, _ := os.UserHomeDir() //nolint:errcheck
		return filepath.Join(home, ".local", "share", appName)
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), configFile)
}

// RegistryPath returns the full path to the provider registry file.
func RegistryPath() string {
	return filepath.Join(ConfigDir(), registryFile)
}

// HistoryPath returns the full path to the history database.
func HistoryPath() string {
	return filepath.Join(DataDir(), historyFile)
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0755)
}

// CurrentUsername returns the name used for the caller's namespace on the
// shared volume: the configured override, then $USER, then the OS account.
func (c *Config) CurrentUsername() string {
	if c.General.Username != "" {
		return c.General.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// Paths resolves every filesystem location diem touches for one user.
// All methods are pure joins; nothing here creates directories.
type Paths struct {
	shareRoot   string
	scratchRoot string
	username    string
}

// NewPaths builds the path set for the configured user.
func NewPaths(cfg *Config) *Paths {
	return &Paths{
		shareRoot:   cfg.General.ShareRoot,
		scratchRoot: cfg.General.ScratchRoot,
		username:    cfg.CurrentUsername(),
	}
}

// Username returns the namespace owner these paths are resolved for.
func (p *Paths) Username() string {
	return p.username
}

// UserRoot returns the diem root inside any user's share-volume namespace.
func (p *Paths) UserRoot(username string) string {
	return filepath.Join(p.shareRoot, username, namespaceDir)
}

// RepositoryRoot returns a provider's publish tree.
func (p *Paths) RepositoryRoot(provider string) string {
	return filepath.Join(p.UserRoot(provider), "repository")
}

// OwnRoot returns the caller's own diem root.
func (p *Paths) OwnRoot() string {
	return p.UserRoot(p.username)
}

// PackagesDir returns the directory installed package trees live in.
func (p *Paths) PackagesDir() string {
	return filepath.Join(p.OwnRoot(), "packages")
}

// PackageDir returns the install target for a deterministic directory name.
func (p *Paths) PackageDir(dirName string) string {
	return filepath.Join(p.PackagesDir(), dirName)
}

// BinDir returns the directory binary symlinks are created in.
func (p *Paths) BinDir() string {
	return filepath.Join(p.OwnRoot(), "bin")
}

// LocksDir returns the directory install locks are created in.
func (p *Paths) LocksDir() string {
	return filepath.Join(p.OwnRoot(), "locks")
}

// MetadataPath returns the installed-packages map file.
func (p *Paths) MetadataPath() string {
	return filepath.Join(p.OwnRoot(), metadataFile)
}

// ScratchRoot returns the caller's diem root on the scratch volume.
func (p *Paths) ScratchRoot() string {
	return filepath.Join(p.scratchRoot, p.username, namespaceDir)
}

// TempRoot returns the parent for private install working directories.
func (p *Paths) TempRoot() string {
	return filepath.Join(p.ScratchRoot(), "tmp")
}

// CacheRoot returns the downloaded-artifact cache directory.
func (p *Paths) CacheRoot() string {
	return filepath.Join(p.ScratchRoot(), "cache")
}

// CacheDir returns the per-package artifact cache directory.
func (p *Paths) CacheDir(dirName string) string {
	return filepath.Join(p.CacheRoot(), dirName)
}

// CacheDBPath returns the cache ledger database file.
func (p *Paths) CacheDBPath() string {
	return filepath.Join(p.CacheRoot(), cacheDBFile)
}

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir() returned empty string")
	}

	// Should contain 'diem' in the path
	if !strings.Contains(dir, "diem") {
		t.Errorf("ConfigDir() should contain 'diem': %s", dir)
	}

	// Platform-specific checks
	switch runtime.GOOS {
	case "darwin":
		if !strings.Contains(dir, "Library/Application Support") {
			t.Errorf("macOS ConfigDir() should be in Library/Application Support: %s", dir)
		}
	case "windows":
		if !strings.Contains(strings.ToLower(dir), "appdata") {
			t.Errorf("Windows ConfigDir() should be in APPDATA: %s", dir)
		}
	default: // Linux
		if !strings.Contains(dir, ".config") && os.Getenv("XDG_CONFIG_HOME") == "" {
			t.Errorf("Linux ConfigDir() should be in .config: %s", dir)
		}
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()

	if path == "" {
		t.Error("ConfigPath() returned empty string")
	}

	if !strings.HasSuffix(path, "config.toml") {
		t.Errorf("ConfigPath() should end with 'config.toml': %s", path)
	}
}

func TestRegistryPath(t *testing.T) {
	path := RegistryPath()

	if !strings.HasSuffix(path, "registry.json") {
		t.Errorf("RegistryPath() should end with 'registry.json': %s", path)
	}
}

func TestHistoryPath(t *testing.T) {
	path := HistoryPath()

	if !strings.HasSuffix(path, "history.db") {
		t.Errorf("HistoryPath() should end with 'history.db': %s", path)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	// Save original and use temp dir
	originalXDG := os.Getenv("XDG_CONFIG_HOME")
	tmpDir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", tmpDir)
	defer os.Setenv("XDG_CONFIG_HOME", originalXDG)

	err := EnsureConfigDir()
	if err != nil {
		t.Fatalf("EnsureConfigDir() error: %v", err)
	}

	// Check directory exists
	dir := ConfigDir()
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Config directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("ConfigDir is not a directory")
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.General.ShareRoot = "/sgoinfre"
	cfg.General.ScratchRoot = "/goinfre"
	cfg.General.Username = "alice"

	p := NewPaths(cfg)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"own root", p.OwnRoot(), "/sgoinfre/alice/diem"},
		{"packages dir", p.PackagesDir(), "/sgoinfre/alice/diem/packages"},
		{"package dir", p.PackageDir("bob_tools"), "/sgoinfre/alice/diem/packages/bob_tools"},
		{"bin dir", p.BinDir(), "/sgoinfre/alice/diem/bin"},
		{"locks dir", p.LocksDir(), "/sgoinfre/alice/diem/locks"},
		{"metadata", p.MetadataPath(), "/sgoinfre/alice/diem/installed_packages.toml"},
		{"repository root", p.RepositoryRoot("bob"), "/sgoinfre/bob/diem/repository"},
		{"temp root", p.TempRoot(), "/goinfre/alice/diem/tmp"},
		{"cache dir", p.CacheDir("bob_tools"), "/goinfre/alice/diem/cache/bob_tools"},
		{"cache db", p.CacheDBPath(), "/goinfre/alice/diem/cache/cache.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}

	if p.Username() != "alice" {
		t.Errorf("Username() = %s, want alice", p.Username())
	}
}

func TestPathsAreAbsolute(t *testing.T) {
	cfg := Default()
	cfg.General.Username = "alice"
	p := NewPaths(cfg)

	for name, path := range map[string]string{
		"OwnRoot":      p.OwnRoot(),
		"BinDir":       p.BinDir(),
		"TempRoot":     p.TempRoot(),
		"MetadataPath": p.MetadataPath(),
	} {
		if !filepath.IsAbs(path) {
			t.Errorf("%s is not absolute: %s", name, path)
		}
	}
}

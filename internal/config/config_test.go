package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Check default volume roots
	if cfg.General.ShareRoot != "/sgoinfre" {
		t.Errorf("expected share root /sgoinfre, got %s", cfg.General.ShareRoot)
	}
	if cfg.General.ScratchRoot != "/goinfre" {
		t.Errorf("expected scratch root /goinfre, got %s", cfg.General.ScratchRoot)
	}
	if cfg.General.CrossProviderFallback {
		t.Error("expected CrossProviderFallback to be false by default")
	}

	// Check default install settings
	if !cfg.Install.Cache {
		t.Error("expected Cache to be true by default")
	}
	if cfg.Install.AutoConfirm {
		t.Error("expected AutoConfirm to be false by default")
	}

	// Check default output settings
	if !cfg.Output.Color {
		t.Error("expected Color to be true by default")
	}
	if cfg.Output.Verbose {
		t.Error("expected Verbose to be false by default")
	}
}

func TestShouldUseColor(t *testing.T) {
	cfg := &Config{
		Output: OutputConfig{Color: true},
	}

	// Should return true when Color is true and NO_COLOR is not set
	os.Unsetenv("NO_COLOR")
	if !cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return true")
	}

	// Should return false when NO_COLOR is set
	os.Setenv("NO_COLOR", "1")
	if cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return false when NO_COLOR is set")
	}
	os.Unsetenv("NO_COLOR")

	// Should return false when Color is false
	cfg.Output.Color = false
	if cfg.ShouldUseColor() {
		t.Error("expected ShouldUseColor() to return false when Color is false")
	}
}

func TestCurrentUsername(t *testing.T) {
	cfg := Default()
	cfg.General.Username = "alice"
	if got := cfg.CurrentUsername(); got != "alice" {
		t.Errorf("expected configured override alice, got %s", got)
	}

	cfg.General.Username = ""
	t.Setenv("USER", "bob")
	if got := cfg.CurrentUsername(); got != "bob" {
		t.Errorf("expected $USER bob, got %s", got)
	}
}

func TestLoadSaveConfig(t *testing.T) {
	// Create temp directory
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	// Create and save config
	cfg := Default()
	cfg.General.ShareRoot = "/mnt/share"
	cfg.General.CrossProviderFallback = true

	err := cfg.SaveTo(configPath)
	if err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}

	// Load config
	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom() error: %v", err)
	}

	// Verify loaded config
	if loaded.General.ShareRoot != "/mnt/share" {
		t.Errorf("loaded share root = %s, want /mnt/share", loaded.General.ShareRoot)
	}
	if !loaded.General.CrossProviderFallback {
		t.Error("loaded config lost CrossProviderFallback")
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	// Loading non-existent file should return default config
	cfg, err := LoadFrom("/non/existent/path/config.toml")
	if err != nil {
		t.Fatalf("LoadFrom() should not error for non-existent file: %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadFrom() should return default config for non-existent file")
	}

	// Should have default values
	if cfg.General.ShareRoot != "/sgoinfre" {
		t.Error("expected default share root")
	}
}

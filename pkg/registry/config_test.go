package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigCreatesFreshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "registry.json")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if len(cfg.Providers) != 0 || cfg.DefaultProvider != "" {
		t.Errorf("fresh config = %+v", cfg)
	}

	// First construction persists the empty file.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}

func TestConfigSaveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Providers = []string{"bob", "carol"}
	cfg.DefaultProvider = "bob"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloaded, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded.Providers) != 2 || reloaded.DefaultProvider != "bob" {
		t.Errorf("reloaded = %+v", reloaded)
	}
	if !reloaded.HasProvider("carol") {
		t.Error("HasProvider(carol) = false")
	}
	if reloaded.HasProvider("mallory") {
		t.Error("HasProvider(mallory) = true")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadConfig() error = %v, want ErrInvalidConfig", err)
	}
}

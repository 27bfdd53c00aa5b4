package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// Config is the persisted set of trusted providers. It is loaded once at
// registry construction, mutated only through the provider operations, and
// written back before every mutating operation returns.
type Config struct {
	Providers       []string `json:"providers"`
	DefaultProvider string   `json:"default_provider,omitempty"`

	path string
}

// LoadConfig reads the provider configuration from path. A missing file
// yields a fresh empty configuration which is persisted immediately, so the
// first registry construction creates it.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Providers: []string{}, path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := cfg.Save(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if cfg.Providers == nil {
		cfg.Providers = []string{}
	}
	return cfg, nil
}

// Save writes the configuration back to its load path.
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, append(data, '\n'), 0644)
}

// HasProvider reports whether username is a configured provider.
func (c *Config) HasProvider(username string) bool {
	return slices.Contains(c.Providers, username)
}

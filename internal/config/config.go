package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config represents the complete diem configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Install InstallConfig `toml:"install"`
	Output  OutputConfig  `toml:"output"`
}

// GeneralConfig contains general diem settings.
type GeneralConfig struct {
	// ShareRoot is the shared volume every provider namespace lives on.
	ShareRoot string `toml:"share_root"`

	// ScratchRoot is the per-user scratch volume for downloads and cache.
	ScratchRoot string `toml:"scratch_root"`

	// Username overrides the detected user for namespace paths when set.
	Username string `toml:"username"`

	// CrossProviderFallback retries a bare dependency name against the
	// default provider when it is missing from the dependent's provider.
	CrossProviderFallback bool `toml:"cross_provider_fallback"`
}

// InstallConfig contains install pipeline settings.
type InstallConfig struct {
	// Cache reuses previously downloaded artifacts by checksum.
	Cache bool `toml:"cache"`

	// AutoConfirm skips confirmation prompts when true (like -y flag).
	AutoConfirm bool `toml:"auto_confirm"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	// Color enables colored output (respects NO_COLOR env var).
	Color bool `toml:"color"`

	// Verbose enables debug-level diagnostics.
	Verbose bool `toml:"verbose"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			ShareRoot:             "/sgoinfre",
			ScratchRoot:           "/goinfre",
			CrossProviderFallback: false,
		},
		Install: InstallConfig{
			Cache:       true,
			AutoConfirm: false,
		},
		Output: OutputConfig{
			Color:   true,
			Verbose: false,
		},
	}
}

// Load loads the configuration from the default path.
// If the config file doesn't exist, it returns the default configuration.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the configuration from a specific path.
// If the config file doesn't exist, it returns the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ShouldUseColor returns true if colored output should be used.
// Respects the NO_COLOR environment variable.
func (c *Config) ShouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return c.Output.Color
}

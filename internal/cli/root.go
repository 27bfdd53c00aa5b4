// Package cli implements the command-line interface for diem.
package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"diem/internal/config"
	"diem/internal/ui"
	"diem/pkg/registry"
)

var (
	// Global flags
	cfgFile string
	yes     bool
	verbose bool
	noColor bool

	// Global state
	cfg   *config.Config
	paths *config.Paths
	reg   *registry.Registry
)

// Build metadata - set at build time via ldflags
var (
	Version   = "0.1.0-dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "diem",
	Short: "Package manager for shared multi-user filesystems",
	Long: `Diem installs, publishes and shares packages over a campus-style
shared filesystem. Every user owns a provider namespace on the share
volume; anyone can install from any provider's namespace.

References are written provider:name, or as a bare name resolved
against the configured default provider.

Examples:
  diem install bob:ripgrep            # Install from bob's namespace
  diem install ripgrep                # Install from the default provider
  diem publish ./mytool               # Publish from your own namespace
  diem provider add alice             # Start installing from alice
  diem search editor                  # Search every configured provider`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&yes, "yes", "y", false, "assume yes to all prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(providerCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(browseCmd)
}

// Execute runs the root command. Errors are printed here rather than by
// cobra so every command fails through the same path.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

// initializeApp sets up the application state.
func initializeApp() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	// Apply global flag overrides
	if yes {
		cfg.Install.AutoConfirm = true
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if noColor {
		cfg.Output.Color = false
	}

	// Library diagnostics stay out of normal command output.
	if cfg.Output.Verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	ui.Init(cfg.ShouldUseColor(), true)

	paths = config.NewPaths(cfg)
	if paths.Username() == "" {
		return fmt.Errorf("cannot determine username; set general.username in %s", config.ConfigPath())
	}

	reg, err = registry.New(paths)
	if err != nil {
		return err
	}

	return nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print diem version",
	Run: func(cmd *cobra.Command, args []string) {
		ui.InfoMsg("diem version %s", Version)
		if Commit != "unknown" {
			ui.MutedMsg("  Commit: %s", Commit)
		}
		if BuildTime != "unknown" {
			ui.MutedMsg("  Built:  %s", BuildTime)
		}
	},
}

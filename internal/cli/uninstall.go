package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"diem/internal/history"
	"diem/internal/ui"
	"diem/pkg/cache"
	"diem/pkg/install"
	"diem/pkg/registry"
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall [packages...]",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove one or more installed packages",
	Long: `Remove installed packages: their binaries, their symlinks and
their cached artifacts. The package directory is snapshotted first and
restored if removal fails partway.

Examples:
  diem uninstall ripgrep            # Remove an installed package
  diem uninstall -y bob:ripgrep     # Remove without confirmation`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUninstall,
}

func runUninstall(cmd *cobra.Command, args []string) error {
	meta, err := install.LoadMetadata(paths.MetadataPath())
	if err != nil {
		return err
	}

	var store *cache.Store
	if s, err := cache.Open(paths); err != nil {
		ui.WarningMsg("Artifact cache unavailable: %v", err)
	} else {
		store = s
		defer store.Close()
	}

	ui.InfoMsg("Removing %d package(s)", len(args))
	for _, arg := range args {
		ui.MutedMsg("  - %s", arg)
	}

	if !cfg.Install.AutoConfirm {
		confirmed, err := ui.Confirm("Proceed with removal?", false)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	u := install.NewUninstaller(paths, store, meta)

	for _, arg := range args {
		ref, err := resolveInstalled(meta, arg)
		if err != nil {
			return err
		}

		entry := history.NewEntry(history.OpUninstall, ref.String())

		if err := u.Uninstall(ref); err != nil {
			entry.MarkFailed(err)
			recordEntry(entry)

			if errors.Is(err, registry.ErrNotFound) {
				return fmt.Errorf("%s is not installed", arg)
			}
			return err
		}

		entry.MarkSuccess()
		recordEntry(entry)
		ui.SuccessMsg("Removed %s", ref)
	}

	return nil
}

// resolveInstalled turns an argument into the reference a package was
// installed from. Bare names resolve via the installation metadata
// first, so uninstalling works even when the provider is gone from the
// registry configuration.
func resolveInstalled(meta *install.Metadata, arg string) (registry.PackageReference, error) {
	if rec, ok := meta.Get(arg); ok && rec.InstalledFrom != "" {
		return registry.PackageReference{Provider: rec.InstalledFrom, Name: arg}, nil
	}
	return reg.ResolveReference(arg)
}

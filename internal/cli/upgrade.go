package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"diem/internal/history"
	"diem/internal/ui"
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade [packages...]",
	Short: "Upgrade installed packages",
	Long: `Upgrade installed packages to the newest version their provider
publishes. A package is only reinstalled when the provider has a
strictly newer version than the one installed.

If no packages are specified, every installed package is checked.

Examples:
  diem upgrade              # Upgrade everything that is outdated
  diem upgrade ripgrep fd   # Upgrade specific packages
  diem upgrade -y           # Upgrade without confirmation`,
	RunE: runUpgrade,
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	inst, store, err := newInstaller()
	if err != nil {
		return err
	}
	defer closeCache(store)

	names := args
	if len(names) == 0 {
		names = inst.Metadata().Names()
	}
	if len(names) == 0 {
		ui.MutedMsg("No packages installed")
		return nil
	}

	if len(args) == 0 {
		ui.InfoMsg("Checking %d installed package(s) for upgrades", len(names))
	}

	if !cfg.Install.AutoConfirm {
		confirmed, err := ui.Confirm("Proceed with upgrade?", true)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	var upgraded []string
	var failures int

	for _, name := range names {
		result, err := inst.Upgrade(ctx, name)
		if err != nil {
			ui.ErrorMsg("Upgrading %s failed: %v", name, err)
			entry := history.NewEntry(history.OpUpgrade, name)
			entry.MarkFailed(err)
			recordEntry(entry)
			failures++
			continue
		}

		if result.Updated {
			ui.SuccessMsg("%s %s -> %s", result.Name, result.From, result.To)
			upgraded = append(upgraded, result.Name+"@"+result.To)
		} else {
			ui.MutedMsg("  %s %s is current", result.Name, result.From)
		}
	}

	if len(upgraded) > 0 {
		entry := history.NewEntry(history.OpUpgrade, upgraded...)
		entry.MarkSuccess()
		recordEntry(entry)
		ui.SuccessMsg("Upgraded %d package(s)", len(upgraded))
	} else if failures == 0 {
		ui.InfoMsg("Everything is up to date")
	}

	if failures > 0 {
		return fmt.Errorf("%d upgrade(s) failed", failures)
	}
	return nil
}

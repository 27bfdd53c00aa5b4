package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"diem/internal/config"
	"diem/internal/history"
	"diem/internal/ui"
)

var (
	historyLimit  int
	historyFailed bool
	historyClear  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show operation history",
	Long: `Display the history of install, remove, upgrade, publish and clean
operations performed by diem on this machine.

Examples:
  diem history              # Show recent operations
  diem history -n 20        # Show the last 20 operations
  diem history --failed     # Only show failed operations
  diem history --clear      # Delete all history entries`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of entries to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show failed operations")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete all history entries")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(config.HistoryPath())
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	if historyClear {
		return clearHistory(store)
	}

	limit := historyLimit
	if historyFailed {
		// Filter first, then cap, so the limit counts failures.
		limit = 0
	}

	entries, err := store.List(limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if historyFailed {
		var failed []history.Entry
		for _, entry := range entries {
			if !entry.Success {
				failed = append(failed, entry)
			}
		}
		entries = failed
		if historyLimit > 0 && len(entries) > historyLimit {
			entries = entries[:historyLimit]
		}
	}

	if len(entries) == 0 {
		ui.MutedMsg("No history entries found")
		return nil
	}

	ui.HeaderMsg("Operation History")

	for i, entry := range entries {
		status := ui.Green("success")
		if !entry.Success {
			status = ui.Red("failed")
		}

		fmt.Printf("%2d. %s %s %s (%s)\n",
			i+1,
			ui.Muted.Sprint(entry.FormatTime()),
			ui.Bold(string(entry.Operation)),
			formatPackages(entry.Packages),
			status,
		)

		if entry.Error != "" {
			ui.MutedMsg("    Error: %s", entry.Error)
		}
	}

	total, _ := store.Count()
	ui.MutedMsg("\nShowing %d of %d total entries", len(entries), total)

	return nil
}

func clearHistory(store *history.Store) error {
	total, _ := store.Count()
	if total == 0 {
		ui.MutedMsg("History is already empty")
		return nil
	}

	if !cfg.Install.AutoConfirm {
		confirmed, err := ui.Confirm(fmt.Sprintf("Delete all %d history entries?", total), false)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	if err := store.Clear(); err != nil {
		return err
	}
	ui.SuccessMsg("History cleared")
	return nil
}

// formatPackages formats a list of packages for display.
func formatPackages(packages []string) string {
	if len(packages) == 0 {
		return ""
	}
	if len(packages) == 1 {
		return packages[0]
	}
	if len(packages) <= 3 {
		return fmt.Sprintf("%v", packages)
	}
	return fmt.Sprintf("%s (+%d more)", packages[0], len(packages)-1)
}

// recordEntry appends an entry to the operation history. History is a
// convenience, not a ledger: a failure to record never fails the command
// that performed the work.
func recordEntry(entry *history.Entry) {
	store, err := history.Open(config.HistoryPath())
	if err != nil {
		return
	}
	defer store.Close()
	store.Record(entry) //nolint:errcheck
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"diem/internal/fsutil"
	"diem/internal/history"
	"diem/internal/ui"
	"diem/pkg/cache"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean the artifact cache and temporary files",
	Long: `Remove cached package artifacts and leftover temporary build
directories from the scratch volume. Installed packages are untouched,
and so are install locks.

Examples:
  diem clean                # Clean cache and temp directories
  diem clean -y             # Clean without confirmation`,
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	var store *cache.Store
	if s, err := cache.Open(paths); err != nil {
		ui.WarningMsg("Artifact cache unavailable: %v", err)
	} else {
		store = s
		defer store.Close()
	}

	if store != nil {
		count, _ := store.Count()
		size, _ := store.Size()
		ui.InfoMsg("Cache holds %d artifact(s), %s", count, formatSize(size))
	}
	ui.MutedMsg("Temporary build trees under %s will be removed", paths.TempRoot())

	if !cfg.Install.AutoConfirm {
		confirmed, err := ui.Confirm("Proceed with cleanup?", true)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	entry := history.NewEntry(history.OpClean)

	err := doClean(store)
	if err != nil {
		entry.MarkFailed(err)
		recordEntry(entry)
		return err
	}

	entry.MarkSuccess()
	recordEntry(entry)
	ui.SuccessMsg("Cleaned cache and temporary files")
	return nil
}

func doClean(store *cache.Store) error {
	if store != nil {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}

	tmp := paths.TempRoot()
	if err := os.RemoveAll(tmp); err != nil {
		return fmt.Errorf("failed to remove temp directory: %w", err)
	}
	return fsutil.EnsureDir(tmp)
}

// formatSize renders a byte count for humans.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

package cli

import (
	"github.com/spf13/cobra"

	"diem/internal/config"
	"diem/internal/history"
	"diem/internal/tui"
	"diem/internal/ui"
	"diem/pkg/install"
)

var browseCmd = &cobra.Command{
	Use:     "browse",
	Aliases: []string{"tui"},
	Short:   "Browse packages interactively",
	Long: `Open a terminal browser over installed packages, the packages the
configured providers publish, and the operation history.

The browser is read-only; install and remove from the command line.

Examples:
  diem browse               # Open the browser`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	meta, err := install.LoadMetadata(paths.MetadataPath())
	if err != nil {
		return err
	}

	var store *history.Store
	if s, err := history.Open(config.HistoryPath()); err != nil {
		ui.WarningMsg("History unavailable: %v", err)
	} else {
		store = s
		defer store.Close()
	}

	return tui.Run(reg, meta, store)
}

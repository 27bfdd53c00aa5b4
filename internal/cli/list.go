package cli

import (
	"context"

	"github.com/spf13/cobra"

	"diem/internal/ui"
	"diem/pkg/install"
)

var (
	listAvailable bool
	listProvider  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed or available packages",
	Long: `List installed packages, or the packages published by the
configured providers.

Examples:
  diem list                     # List installed packages
  diem list -a                  # List everything the providers publish
  diem list -a -p bob           # List what bob publishes`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAvailable, "available", "a", false, "list packages published by providers")
	listCmd.Flags().StringVarP(&listProvider, "provider", "p", "", "limit to a single provider")
}

func runList(cmd *cobra.Command, args []string) error {
	meta, err := install.LoadMetadata(paths.MetadataPath())
	if err != nil {
		return err
	}

	if !listAvailable {
		if meta.Len() == 0 {
			ui.MutedMsg("No packages installed")
			return nil
		}
		ui.PrintInstalled(meta)
		ui.MutedMsg("\nTotal: %d package(s)", meta.Len())
		return nil
	}

	if len(reg.Providers()) == 0 {
		return ErrNoProviders
	}

	packages, err := reg.ListPackages(context.Background(), listProvider)
	if err != nil {
		return err
	}
	if len(packages) == 0 {
		ui.MutedMsg("No packages published")
		return nil
	}

	ui.PrintPackages(packages, meta.Has)
	ui.MutedMsg("\nTotal: %d package(s)", len(packages))
	return nil
}

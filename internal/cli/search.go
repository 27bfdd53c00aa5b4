package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"diem/internal/ui"
	"diem/pkg/install"
	"diem/pkg/registry"
)

var searchInstalledOnly bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search packages across all providers",
	Long: `Search the packages published by every configured provider.
Matching is by substring on the package name, case-insensitive.

Examples:
  diem search ripgrep           # Find who publishes ripgrep
  diem search rip               # Substring match
  diem search --installed grep  # Only show installed matches`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchInstalledOnly, "installed", false, "only show installed packages")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := args[0]

	if len(reg.Providers()) == 0 {
		return ErrNoProviders
	}

	meta, err := install.LoadMetadata(paths.MetadataPath())
	if err != nil {
		return err
	}

	sp := ui.NewSpinner(fmt.Sprintf("Searching for '%s'", query))
	sp.Start()
	results, err := reg.SearchPackages(ctx, query)
	sp.Stop()
	if err != nil {
		return err
	}

	if searchInstalledOnly {
		var installed []*registry.Package
		for _, pkg := range results {
			if meta.Has(pkg.Name) {
				installed = append(installed, pkg)
			}
		}
		results = installed
	}

	if len(results) == 0 {
		ui.InfoMsg("No packages found matching '%s'", query)
		return nil
	}

	ui.PrintSearchResults(results, meta.Has)
	ui.MutedMsg("\nFound %d package(s)", len(results))

	return offerInstall(ctx, results)
}

// offerInstall lets the user pick a search result and install it.
// Skipped under --yes since selection is interactive.
func offerInstall(ctx context.Context, results []*registry.Package) error {
	if cfg.Install.AutoConfirm || len(results) == 0 {
		return nil
	}

	confirmed, err := ui.Confirm("Install one of these packages?", false)
	if err != nil || !confirmed {
		return nil
	}

	pkg, err := ui.SelectPackage(results, "Select a package to install")
	if err != nil || pkg == nil {
		return nil
	}

	inst, store, err := newInstaller()
	if err != nil {
		return err
	}
	defer closeCache(store)

	return installOne(ctx, inst, pkg.Reference().String())
}

package cli

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"diem/internal/ui"
	"diem/pkg/install"
	"diem/pkg/registry"
)

var infoCmd = &cobra.Command{
	Use:   "info <package>",
	Short: "Show package information",
	Long: `Display the manifest of a package and its installation state.

Bare names resolve through the installation metadata first, then the
default provider.

Examples:
  diem info ripgrep             # Installed package, or default provider's
  diem info bob:ripgrep         # Bob's package`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	meta, err := install.LoadMetadata(paths.MetadataPath())
	if err != nil {
		return err
	}

	ref, err := resolveInstalled(meta, args[0])
	if err != nil {
		return err
	}

	var rec *install.Record
	if r, ok := meta.Get(ref.Name); ok && r.InstalledFrom == ref.Provider {
		rec = &r
	}

	pkg, err := reg.PackageInfo(ref)
	if err != nil {
		if !errors.Is(err, registry.ErrNotFound) || rec == nil {
			return err
		}
		// The provider's tree is gone but the package is installed;
		// fall back to the manifest that shipped with it.
		pkg, err = registry.LoadManifest(filepath.Join(paths.PackageDir(ref.DirName()), registry.ManifestName))
		if err != nil {
			return err
		}
		ui.WarningMsg("Provider %s no longer publishes %s; showing the installed manifest", ref.Provider, ref.Name)
	}

	ui.PrintPackageInfo(pkg, rec)
	printVersions(ref)

	if rec == nil {
		ui.MutedMsg("\nPackage is not installed")
	}
	return nil
}

// printVersions lists every version the provider's index records.
func printVersions(ref registry.PackageReference) {
	idx, err := reg.Repository(ref.Provider).LoadIndex()
	if err != nil {
		return
	}
	entry, ok := idx.Packages[ref.Name]
	if !ok || len(entry.Versions) == 0 {
		return
	}
	ui.Println("%s %s", ui.Cyan("Versions:"), strings.Join(entry.Versions, ", "))
}

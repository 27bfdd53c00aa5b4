package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"diem/internal/executor"
	"diem/internal/history"
	"diem/internal/ui"
	"diem/pkg/registry"
)

var publishCmd = &cobra.Command{
	Use:   "publish [directory]",
	Short: "Publish a package into your own namespace",
	Long: `Publish the package in a directory into your repository on the
shared volume. The directory must contain a package.json manifest.

Publishing archives the directory, records its checksum and registers
the version in your repository index. Published versions are immutable;
bump the version in the manifest to publish again.

Examples:
  diem publish                # Publish the current directory
  diem publish ./mytool       # Publish a specific directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	srcDir := "."
	if len(args) == 1 {
		srcDir = args[0]
	}
	srcDir, err := filepath.Abs(srcDir)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(srcDir, registry.ManifestName)); err != nil {
		return fmt.Errorf("%s has no %s manifest", srcDir, registry.ManifestName)
	}

	repo := reg.Repository(paths.Username())
	publisher := registry.NewPublisher(repo, executor.New(cfg.Output.Verbose))

	sp := ui.NewSpinner("Publishing " + filepath.Base(srcDir))
	sp.Start()
	pkg, err := publisher.Publish(ctx, srcDir)
	sp.Stop()

	if err != nil {
		entry := history.NewEntry(history.OpPublish, filepath.Base(srcDir))
		entry.MarkFailed(err)
		recordEntry(entry)
		return err
	}

	entry := history.NewEntry(history.OpPublish, pkg.Key())
	entry.MarkSuccess()
	recordEntry(entry)

	ui.SuccessMsg("Published %s", pkg.Key())
	ui.MutedMsg("  Artifact: %s", repo.ArtifactPath(pkg.Name, pkg.Version))
	ui.MutedMsg("  Install:  diem install %s", pkg.Reference())
	return nil
}

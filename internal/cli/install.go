package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"diem/internal/executor"
	"diem/internal/history"
	"diem/internal/ui"
	"diem/pkg/cache"
	"diem/pkg/install"
	"diem/pkg/platform"
	"diem/pkg/registry"
	"diem/pkg/resolver"
)

var (
	installForce  bool
	installNoDeps bool
)

var installCmd = &cobra.Command{
	Use:   "install [packages...]",
	Short: "Install one or more packages",
	Long: `Install packages from provider namespaces on the shared volume.

Dependencies declared by the package are resolved and installed first.
A bare name is looked up in the default provider; if it is not
published there, diem offers matches from other configured providers.

Examples:
  diem install bob:ripgrep          # Install from bob's namespace
  diem install ripgrep fd           # Install from the default provider
  diem install -f bob:ripgrep       # Replace existing binaries
  diem install --no-deps bob:tool   # Skip dependency resolution`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "reinstall and replace existing binaries")
	installCmd.Flags().BoolVar(&installNoDeps, "no-deps", false, "install without resolving dependencies")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(reg.Providers()) == 0 {
		return ErrNoProviders
	}

	inst, store, err := newInstaller()
	if err != nil {
		return err
	}
	defer closeCache(store)

	for _, arg := range args {
		if err := installOne(ctx, inst, arg); err != nil {
			return err
		}
	}
	return nil
}

// newInstaller wires the install pipeline, with the scratch cache when
// it is available.
func newInstaller() (*install.Installer, *cache.Store, error) {
	opts := []install.Option{
		install.WithExecutor(executor.New(cfg.Output.Verbose)),
	}

	var store *cache.Store
	if cfg.Install.Cache {
		s, err := cache.Open(paths)
		if err != nil {
			ui.WarningMsg("Artifact cache unavailable: %v", err)
		} else {
			store = s
			opts = append(opts, install.WithCache(store))
		}
	}

	inst, err := install.New(paths, reg, opts...)
	if err != nil {
		closeCache(store)
		return nil, nil, err
	}
	return inst, store, nil
}

func closeCache(store *cache.Store) {
	if store != nil {
		store.Close() //nolint:errcheck
	}
}

// installOne resolves a single argument into a plan and installs it.
func installOne(ctx context.Context, inst *install.Installer, arg string) error {
	ref, err := reg.ResolveReference(arg)
	if err != nil {
		return err
	}

	if rec, ok := inst.Metadata().Get(ref.Name); ok && !installForce {
		ui.WarningMsg("%s %s is already installed (use --force to reinstall, or 'diem upgrade %s')",
			ref.Name, rec.InstalledVersion, ref.Name)
		return nil
	}

	plan, err := buildPlan(inst, ref)
	if errors.Is(err, registry.ErrNotFound) && !strings.Contains(arg, ":") {
		// The default provider does not publish this name. Offer
		// matches from the other configured providers.
		picked, pickErr := findElsewhere(ctx, ref.Name)
		if pickErr != nil {
			return pickErr
		}
		if picked == nil {
			return err
		}
		plan, err = buildPlan(inst, picked.Reference())
	}
	if err != nil {
		return err
	}

	var toInstall []*registry.Package
	for _, pkg := range plan {
		if pkg.Name != ref.Name && inst.Metadata().Has(pkg.Name) && !installForce {
			ui.MutedMsg("  %s is already installed, skipping", pkg.Key())
			continue
		}
		toInstall = append(toInstall, pkg)
	}
	if len(toInstall) == 0 {
		return nil
	}

	if len(toInstall) > 1 {
		ui.InfoMsg("Install plan:")
		for _, pkg := range toInstall {
			ui.MutedMsg("  - %s", pkg.Key())
		}
	} else {
		pkg := toInstall[0]
		ui.InfoMsg("Installing %s %s from %s", pkg.Name, pkg.Version, pkg.Provider)
	}

	if !cfg.Install.AutoConfirm {
		confirmed, err := ui.Confirm("Proceed with installation?", true)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrAborted
		}
	}

	keys := make([]string, len(toInstall))
	for i, pkg := range toInstall {
		keys[i] = pkg.Key()
	}
	entry := history.NewEntry(history.OpInstall, keys...)

	for _, pkg := range toInstall {
		if err := inst.Install(ctx, pkg, installForce); err != nil {
			entry.MarkFailed(err)
			recordEntry(entry)
			return err
		}
	}

	entry.MarkSuccess()
	recordEntry(entry)

	if len(toInstall) == 1 {
		ui.SuccessMsg("Installed %s", toInstall[0].Key())
	} else {
		ui.SuccessMsg("Installed %d packages", len(toInstall))
	}
	return nil
}

// buildPlan computes the dependency-ordered install plan for a reference.
func buildPlan(inst *install.Installer, ref registry.PackageReference) ([]*registry.Package, error) {
	if installNoDeps {
		pkg, err := reg.PackageInfo(ref)
		if err != nil {
			return nil, err
		}
		if err := platform.Check(pkg); err != nil {
			return nil, err
		}
		for _, warning := range platform.CheckEngines(pkg) {
			ui.WarningMsg("%s", warning)
		}
		return []*registry.Package{pkg}, nil
	}

	res, err := resolver.New(reg,
		resolver.WithCrossProviderFallback(cfg.General.CrossProviderFallback),
		resolver.WithInstalledCheck(inst.Metadata().Has),
	).Resolve(ref)
	if err != nil {
		return nil, err
	}

	for _, warning := range res.Warnings {
		ui.WarningMsg("%s", warning)
	}
	return res.Plan, nil
}

// findElsewhere searches every configured provider for an exact name
// match and lets the user pick one. Returns nil when nothing matches.
func findElsewhere(ctx context.Context, name string) (*registry.Package, error) {
	results, err := reg.SearchPackages(ctx, name)
	if err != nil {
		return nil, err
	}

	var matches []*registry.Package
	for _, pkg := range results {
		if pkg.Name == name {
			matches = append(matches, pkg)
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	if cfg.Install.AutoConfirm {
		if len(matches) == 1 {
			ui.InfoMsg("'%s' found in provider %s", name, matches[0].Provider)
			return matches[0], nil
		}
		providers := make([]string, len(matches))
		for i, pkg := range matches {
			providers[i] = pkg.Provider
		}
		return nil, fmt.Errorf("'%s' is published by multiple providers (%s); use provider:name",
			name, strings.Join(providers, ", "))
	}

	ui.InfoMsg("'%s' is not published by the default provider", name)
	picked, err := ui.SelectPackage(matches, "Install from")
	if err != nil {
		return nil, nil
	}
	return picked, nil
}

package install

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"diem/pkg/platform"
	"diem/pkg/registry"
)

// UpgradeResult reports what an upgrade did.
type UpgradeResult struct {
	Name    string
	From    string
	To      string
	Updated bool
}

// Upgrade reinstalls a package only when its provider has published a
// strictly newer version than the recorded one; anything else is a no-op
// reporting the package already current.
func (i *Installer) Upgrade(ctx context.Context, name string) (*UpgradeResult, error) {
	rec, ok := i.metadata.Get(name)
	if !ok {
		return nil, &NotInstalledError{Name: name}
	}

	ref := registry.PackageReference{Provider: rec.InstalledFrom, Name: name}
	latest, err := i.catalog.LatestVersion(ref)
	if err != nil {
		return nil, err
	}

	current, err := semver.NewVersion(rec.InstalledVersion)
	if err != nil {
		return nil, fmt.Errorf("recorded version %q for %s: %w", rec.InstalledVersion, name, err)
	}
	next, err := semver.NewVersion(latest)
	if err != nil {
		return nil, fmt.Errorf("published version %q for %s: %w", latest, name, err)
	}

	result := &UpgradeResult{Name: name, From: rec.InstalledVersion, To: latest}
	if !next.GreaterThan(current) {
		log.Info("already current", "package", name, "version", rec.InstalledVersion)
		return result, nil
	}

	pkg, err := i.catalog.PackageInfo(ref)
	if err != nil {
		return nil, err
	}
	result.To = pkg.Version

	// The newer version may constrain platforms the old one did not.
	if err := platform.Check(pkg); err != nil {
		return nil, err
	}
	for _, warning := range platform.CheckEngines(pkg) {
		log.Warn(warning)
	}

	// The new version replaces this package's own links.
	if err := i.Install(ctx, pkg, true); err != nil {
		return nil, err
	}
	result.Updated = true
	return result, nil
}

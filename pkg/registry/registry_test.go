package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"diem/internal/config"
)

func testRegistry(t *testing.T) (*Registry, *config.Paths) {
	t.Helper()

	cfg := config.Default()
	cfg.General.ShareRoot = t.TempDir()
	cfg.General.ScratchRoot = t.TempDir()
	cfg.General.Username = "alice"
	paths := config.NewPaths(cfg)

	reg, err := NewFrom(paths, filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatalf("NewFrom() error: %v", err)
	}
	return reg, paths
}

func seedProvider(t *testing.T, paths *config.Paths, provider string, pkgs ...*Package) {
	t.Helper()
	repo := NewRepository(provider, paths.RepositoryRoot(provider))
	if err := os.MkdirAll(repo.Root, 0755); err != nil {
		t.Fatal(err)
	}
	for _, pkg := range pkgs {
		seedManifest(t, repo, pkg)
	}
}

func TestAddProvider(t *testing.T) {
	reg, paths := testRegistry(t)

	// A provider must have a repository tree on the volume first.
	if err := reg.AddProvider("bob"); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("AddProvider() error = %v, want ErrProviderNotFound", err)
	}

	seedProvider(t, paths, "bob")
	if err := reg.AddProvider("bob"); err != nil {
		t.Fatalf("AddProvider() error: %v", err)
	}
	if err := reg.AddProvider("bob"); !errors.Is(err, ErrProviderExists) {
		t.Errorf("duplicate AddProvider() error = %v, want ErrProviderExists", err)
	}
	if err := reg.AddProvider("B_ob"); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("invalid name error = %v, want ErrInvalidReference", err)
	}

	providers := reg.Providers()
	if len(providers) != 1 || providers[0] != "bob" {
		t.Errorf("Providers() = %v", providers)
	}
}

func TestProviderConfigPersists(t *testing.T) {
	cfg := config.Default()
	cfg.General.ShareRoot = t.TempDir()
	cfg.General.ScratchRoot = t.TempDir()
	cfg.General.Username = "alice"
	paths := config.NewPaths(cfg)
	configPath := filepath.Join(t.TempDir(), "registry.json")

	reg, err := NewFrom(paths, configPath)
	if err != nil {
		t.Fatal(err)
	}
	seedProvider(t, paths, "bob")
	seedProvider(t, paths, "carol")
	if err := reg.AddProvider("bob"); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddProvider("carol"); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDefaultProvider("bob"); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewFrom(paths, configPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Providers(); len(got) != 2 {
		t.Errorf("Providers() after reopen = %v", got)
	}
	if reopened.DefaultProvider() != "bob" {
		t.Errorf("DefaultProvider() after reopen = %q", reopened.DefaultProvider())
	}
}

func TestRemoveProviderClearsDefault(t *testing.T) {
	reg, paths := testRegistry(t)
	seedProvider(t, paths, "bob")
	if err := reg.AddProvider("bob"); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDefaultProvider("bob"); err != nil {
		t.Fatal(err)
	}

	if err := reg.RemoveProvider("bob"); err != nil {
		t.Fatalf("RemoveProvider() error: %v", err)
	}
	if reg.DefaultProvider() != "" {
		t.Errorf("default survived removal: %q", reg.DefaultProvider())
	}
	if err := reg.RemoveProvider("bob"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Errorf("second RemoveProvider() error = %v, want ErrProviderNotConfigured", err)
	}
}

func TestSetDefaultProviderRequiresConfigured(t *testing.T) {
	reg, paths := testRegistry(t)

	if err := reg.SetDefaultProvider("bob"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("SetDefaultProvider() error = %v, want ErrProviderNotConfigured", err)
	}

	seedProvider(t, paths, "bob")
	if err := reg.AddProvider("bob"); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDefaultProvider("bob"); err != nil {
		t.Fatalf("SetDefaultProvider() error: %v", err)
	}

	ref, err := reg.ResolveReference("ripgrep")
	if err != nil {
		t.Fatalf("ResolveReference() error: %v", err)
	}
	if ref.Provider != "bob" {
		t.Errorf("bare name resolved to %q", ref.Provider)
	}
}

func TestListAndSearch(t *testing.T) {
	reg, paths := testRegistry(t)
	seedProvider(t, paths, "bob",
		&Package{Name: "ripgrep", Version: "14.1.0"},
		&Package{Name: "fd", Version: "9.0.0"},
	)
	seedProvider(t, paths, "carol",
		&Package{Name: "ripgrep", Version: "13.0.0"},
	)
	if err := reg.AddProvider("bob"); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddProvider("carol"); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()

	all, err := reg.ListPackages(ctx, "")
	if err != nil {
		t.Fatalf("ListPackages() error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListPackages() = %d packages, want 3", len(all))
	}
	// Merged listing is ordered by provider, then name.
	if all[0].Provider != "bob" || all[0].Name != "fd" || all[2].Provider != "carol" {
		t.Errorf("order = %s:%s ... %s:%s", all[0].Provider, all[0].Name, all[2].Provider, all[2].Name)
	}

	only, err := reg.ListPackages(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 2 {
		t.Errorf("ListPackages(bob) = %d packages, want 2", len(only))
	}

	found, err := reg.SearchPackages(ctx, "RIP")
	if err != nil {
		t.Fatalf("SearchPackages() error: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("SearchPackages(RIP) = %d matches, want 2", len(found))
	}
	for _, pkg := range found {
		if pkg.Name != "ripgrep" {
			t.Errorf("unexpected match %s", pkg.Name)
		}
	}
}

func TestPackageInfo(t *testing.T) {
	reg, paths := testRegistry(t)
	seedProvider(t, paths, "bob", &Package{Name: "ripgrep", Version: "14.1.0"})
	if err := reg.AddProvider("bob"); err != nil {
		t.Fatal(err)
	}

	pkg, err := reg.PackageInfo(PackageReference{Provider: "bob", Name: "ripgrep"})
	if err != nil {
		t.Fatalf("PackageInfo() error: %v", err)
	}
	if pkg.Provider != "bob" || pkg.Version != "14.1.0" {
		t.Errorf("pkg = %+v", pkg)
	}

	if _, err := reg.PackageInfo(PackageReference{Provider: "bob", Name: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing package error = %v, want ErrNotFound", err)
	}
}

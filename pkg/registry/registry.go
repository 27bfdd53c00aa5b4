package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"diem/internal/config"
)

// listConcurrency bounds the provider fan-out for list and search.
const listConcurrency = 8

// Registry resolves human references to package manifests and manages the
// configured provider namespaces. Provider mutations persist the
// configuration before returning.
type Registry struct {
	cfg   *Config
	paths *config.Paths
}

// New opens the registry, creating its configuration file on first use.
func New(paths *config.Paths) (*Registry, error) {
	return NewFrom(paths, config.RegistryPath())
}

// NewFrom opens the registry with an explicit configuration path.
func NewFrom(paths *config.Paths, configPath string) (*Registry, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return &Registry{cfg: cfg, paths: paths}, nil
}

// Providers returns the configured provider names.
func (r *Registry) Providers() []string {
	out := make([]string, len(r.cfg.Providers))
	copy(out, r.cfg.Providers)
	return out
}

// DefaultProvider returns the configured default, or empty.
func (r *Registry) DefaultProvider() string {
	return r.cfg.DefaultProvider
}

// Repository returns the publish tree view for a provider.
func (r *Registry) Repository(provider string) *Repository {
	return NewRepository(provider, r.paths.RepositoryRoot(provider))
}

// ResolveReference parses user input into a concrete reference, applying
// the default provider to bare names.
func (r *Registry) ResolveReference(text string) (PackageReference, error) {
	return ParseReference(text, r.cfg.DefaultProvider)
}

// PackageInfo locates the current manifest for a reference.
func (r *Registry) PackageInfo(ref PackageReference) (*Package, error) {
	return r.Repository(ref.Provider).Manifest(ref.Name)
}

// LatestVersion returns the newest published version for a reference.
func (r *Registry) LatestVersion(ref PackageReference) (string, error) {
	return r.Repository(ref.Provider).LatestVersion(ref.Name)
}

// ListPackages enumerates one provider's packages, or every configured
// provider's when provider is empty.
func (r *Registry) ListPackages(ctx context.Context, provider string) ([]*Package, error) {
	if provider != "" {
		return r.Repository(provider).List()
	}
	return r.listAll(ctx)
}

// SearchPackages finds packages whose name contains query across all
// configured providers, case-insensitively.
func (r *Registry) SearchPackages(ctx context.Context, query string) ([]*Package, error) {
	all, err := r.listAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var matches []*Package
	for _, pkg := range all {
		if strings.Contains(strings.ToLower(pkg.Name), needle) {
			matches = append(matches, pkg)
		}
	}
	return matches, nil
}

// listAll fans out over every configured provider with bounded concurrency.
// Provider listings read disjoint directory trees, so ordering between them
// does not matter; results are merged and sorted afterwards.
func (r *Registry) listAll(ctx context.Context) ([]*Package, error) {
	providers := r.Providers()
	results := make([][]*Package, len(providers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, provider := range providers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pkgs, err := r.Repository(provider).List()
			if err != nil {
				log.Warn("listing provider failed", "provider", provider, "err", err)
				return nil
			}
			results[i] = pkgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []*Package
	for _, pkgs := range results {
		all = append(all, pkgs...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Provider != all[j].Provider {
			return all[i].Provider < all[j].Provider
		}
		return all[i].Name < all[j].Name
	})
	return all, nil
}

// AddProvider registers a provider namespace after verifying it exists on
// the shared volume.
func (r *Registry) AddProvider(username string) error {
	if err := ValidateName(username); err != nil {
		return err
	}
	if r.cfg.HasProvider(username) {
		return fmt.Errorf("%w: %s", ErrProviderExists, username)
	}
	if !r.Repository(username).Exists() {
		return fmt.Errorf("%w: %s (no repository under %s)",
			ErrProviderNotFound, username, r.paths.RepositoryRoot(username))
	}

	r.cfg.Providers = append(r.cfg.Providers, username)
	sort.Strings(r.cfg.Providers)
	return r.cfg.Save()
}

// RemoveProvider unregisters a provider. Removing the current default
// clears the default.
func (r *Registry) RemoveProvider(username string) error {
	if !r.cfg.HasProvider(username) {
		return fmt.Errorf("%w: %s", ErrProviderNotConfigured, username)
	}

	kept := r.cfg.Providers[:0]
	for _, p := range r.cfg.Providers {
		if p != username {
			kept = append(kept, p)
		}
	}
	r.cfg.Providers = kept
	if r.cfg.DefaultProvider == username {
		r.cfg.DefaultProvider = ""
	}
	return r.cfg.Save()
}

// SetDefaultProvider makes an already-configured provider the default for
// bare package names.
func (r *Registry) SetDefaultProvider(username string) error {
	if !r.cfg.HasProvider(username) {
		return fmt.Errorf("%w: %s", ErrProviderNotConfigured, username)
	}
	r.cfg.DefaultProvider = username
	return r.cfg.Save()
}

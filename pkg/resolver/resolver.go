// Package resolver expands a requested package into an ordered, cycle-free
// install plan over its transitive dependencies.
//
// Resolution is an explicit depth-first traversal over three sets keyed by
// "provider:name@version": unvisited, in-progress (the cycle guard) and
// resolved. A node enters the plan only after all of its dependencies have,
// so the plan is in dependency-first topological order. Required-dependency
// failures abort the resolution; optional-dependency failures are logged and
// the dependency is omitted.
package resolver

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"diem/pkg/platform"
	"diem/pkg/registry"
)

// Source provides manifests during resolution.
type Source interface {
	PackageInfo(ref registry.PackageReference) (*registry.Package, error)
	DefaultProvider() string
}

// Resolver computes install plans from a manifest source.
type Resolver struct {
	source    Source
	fallback  bool
	installed func(name string) bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCrossProviderFallback retries bare dependency names against the
// default provider when the dependent's provider does not publish them.
func WithCrossProviderFallback(enabled bool) Option {
	return func(r *Resolver) {
		r.fallback = enabled
	}
}

// WithInstalledCheck supplies the installed-package lookup used to verify
// peer dependencies.
func WithInstalledCheck(fn func(name string) bool) Option {
	return func(r *Resolver) {
		r.installed = fn
	}
}

// New creates a Resolver reading manifests from source.
func New(source Source, opts ...Option) *Resolver {
	r := &Resolver{source: source}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is a computed install plan plus the advisory warnings gathered
// while building it (engine constraints, skipped optional dependencies,
// missing peers).
type Result struct {
	Plan     []*registry.Package
	Warnings []string
}

// depSpec is one outgoing dependency edge of a manifest.
type depSpec struct {
	text     string
	optional bool
}

// frame is one node on the traversal stack.
type frame struct {
	pkg   *registry.Package
	key   string
	specs []depSpec

	// optionalEdge records how this node was reached; failures below it
	// unwind to the nearest optional edge instead of aborting everything.
	optionalEdge bool

	next int
}

func depSpecs(pkg *registry.Package) []depSpec {
	specs := make([]depSpec, 0, len(pkg.Dependencies)+len(pkg.OptionalDependencies))
	for _, d := range pkg.Dependencies {
		specs = append(specs, depSpec{text: d})
	}
	for _, d := range pkg.OptionalDependencies {
		specs = append(specs, depSpec{text: d, optional: true})
	}
	return specs
}

// Resolve expands ref into an ordered install plan.
func (r *Resolver) Resolve(ref registry.PackageReference) (*Result, error) {
	root, err := r.source.PackageInfo(ref)
	if err != nil {
		return nil, err
	}
	if err := platform.Check(root); err != nil {
		return nil, err
	}

	res := &Result{}
	r.engineWarnings(res, root)

	inProgress := map[string]bool{root.Key(): true}
	resolved := map[string]*registry.Package{}
	seen := map[string]bool{root.Name: true}
	stack := []*frame{{pkg: root, key: root.Key(), specs: depSpecs(root)}}

	res.Warnings = append(res.Warnings, r.peerWarnings(root, seen)...)

	for len(stack) > 0 {
		f := stack[len(stack)-1]

		if f.next >= len(f.specs) {
			// All children resolved; the node joins the plan after them.
			stack = stack[:len(stack)-1]
			delete(inProgress, f.key)
			resolved[f.key] = f.pkg
			res.Plan = append(res.Plan, f.pkg)
			continue
		}

		spec := f.specs[f.next]
		f.next++

		child, err := r.lookup(spec.text, f.pkg.Provider)
		if err == nil {
			if _, done := resolved[child.Key()]; done {
				continue
			}
			if inProgress[child.Key()] {
				err = &CycleError{Chain: cycleChain(stack, child.Key())}
			}
		}
		if err == nil {
			err = platform.Check(child)
		}

		if err != nil {
			if spec.optional {
				r.skipOptional(res, f.pkg.Name, spec.text, err)
				continue
			}
			if unwindErr := unwind(&stack, inProgress, res, spec.text, f.pkg.Name, err); unwindErr != nil {
				return nil, unwindErr
			}
			continue
		}

		if !strings.Contains(spec.text, ":") && child.Provider != f.pkg.Provider {
			res.Warnings = append(res.Warnings, fmt.Sprintf("dependency %s of %s resolved from default provider %s", child.Name, f.pkg.Name, child.Provider))
		}
		r.engineWarnings(res, child)
		res.Warnings = append(res.Warnings, r.peerWarnings(child, seen)...)

		inProgress[child.Key()] = true
		seen[child.Name] = true
		stack = append(stack, &frame{
			pkg:          child,
			key:          child.Key(),
			specs:        depSpecs(child),
			optionalEdge: spec.optional,
		})
	}

	return res, nil
}

// lookup resolves a dependency spec relative to the dependent's provider.
// Specs may name a provider explicitly; bare names search the dependent's
// provider first and fall back to the default provider when configured.
func (r *Resolver) lookup(spec, parentProvider string) (*registry.Package, error) {
	ref, err := registry.ParseReference(spec, parentProvider)
	if err != nil {
		return nil, err
	}

	pkg, err := r.source.PackageInfo(ref)
	if err == nil {
		return pkg, nil
	}

	if r.fallback && !strings.Contains(spec, ":") {
		if def := r.source.DefaultProvider(); def != "" && def != parentProvider {
			if pkg, ferr := r.source.PackageInfo(registry.PackageReference{Provider: def, Name: ref.Name}); ferr == nil {
				return pkg, nil
			}
		}
	}
	return nil, err
}

// engineWarnings collects a package's unmet engine constraints. Engine
// constraints are advisory; each miss is logged and carried on the plan.
func (r *Resolver) engineWarnings(res *Result, pkg *registry.Package) {
	for _, warning := range platform.CheckEngines(pkg) {
		log.Warn(warning)
		res.Warnings = append(res.Warnings, warning)
	}
}

// skipOptional records an omitted optional dependency.
func (r *Resolver) skipOptional(res *Result, parent, spec string, err error) {
	log.Warn("skipping optional dependency", "package", parent, "dependency", spec, "err", err)
	res.Warnings = append(res.Warnings, fmt.Sprintf("optional dependency %s of %s skipped: %v", spec, parent, err))
}

// unwind pops failed frames until an optional edge absorbs the failure.
// A failure that unwinds past the root aborts the whole resolution.
func unwind(stack *[]*frame, inProgress map[string]bool, res *Result, spec, parent string, cause error) error {
	err := fmt.Errorf("dependency %q of %s: %w", spec, parent, cause)

	for {
		s := *stack
		failed := s[len(s)-1]
		*stack = s[:len(s)-1]
		delete(inProgress, failed.key)

		if len(*stack) == 0 {
			return err
		}
		if failed.optionalEdge {
			above := (*stack)[len(*stack)-1]
			log.Warn("skipping optional dependency", "package", above.pkg.Name, "dependency", failed.key, "err", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("optional dependency %s of %s skipped: %v", failed.key, above.pkg.Name, err))
			return nil
		}
	}
}

// peerWarnings checks a package's peer dependencies against the installed
// set and the packages already entering this plan. Peers never block.
func (r *Resolver) peerWarnings(pkg *registry.Package, seen map[string]bool) []string {
	var warnings []string
	for _, spec := range pkg.PeerDependencies {
		name := spec
		if i := strings.LastIndex(spec, ":"); i >= 0 {
			name = spec[i+1:]
		}
		if seen[name] {
			continue
		}
		if r.installed != nil && r.installed(name) {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("%s expects peer %s, which is not installed", pkg.Name, spec))
	}
	return warnings
}

// cycleChain reconstructs the loop for error reporting: the stack segment
// from the first occurrence of key, closed with key itself.
func cycleChain(stack []*frame, key string) []string {
	start := 0
	for i, f := range stack {
		if f.key == key {
			start = i
			break
		}
	}
	chain := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		chain = append(chain, f.key)
	}
	return append(chain, key)
}

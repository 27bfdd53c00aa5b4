// Package platform is the stateless compatibility gate consulted for every
// package entering an install plan. Platform constraints are mandatory;
// engine constraints are advisory.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"diem/pkg/registry"
)

// ErrIncompatible matches any hard platform rejection.
var ErrIncompatible = errors.New("package incompatible with this system")

// IncompatibleError reports which constraint excluded the current platform.
type IncompatibleError struct {
	Package string
	Field   string // "os" or "cpu"
	Current string
	Allowed []string
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("package %s does not support %s %q (supports: %s)",
		e.Package, e.Field, e.Current, strings.Join(e.Allowed, ", "))
}

// Unwrap makes the error match ErrIncompatible with errors.Is.
func (e *IncompatibleError) Unwrap() error {
	return ErrIncompatible
}

// Manifests written against other toolchains use their platform names;
// both spellings are accepted.
var osAliases = map[string]string{
	"macos": "darwin",
	"osx":   "darwin",
}

var cpuAliases = map[string]string{
	"x86_64":  "amd64",
	"aarch64": "arm64",
	"x86":     "386",
	"i386":    "386",
	"i686":    "386",
}

func normalizeOS(name string) string {
	name = strings.ToLower(name)
	if canonical, ok := osAliases[name]; ok {
		return canonical
	}
	return name
}

func normalizeCPU(name string) string {
	name = strings.ToLower(name)
	if canonical, ok := cpuAliases[name]; ok {
		return canonical
	}
	return name
}

// Check rejects a package whose declared OS or CPU list excludes the
// current platform. Empty lists mean unconstrained.
func Check(pkg *registry.Package) error {
	return checkOn(pkg, runtime.GOOS, runtime.GOARCH)
}

// checkOn is Check against an explicit platform, for tests.
func checkOn(pkg *registry.Package, goos, goarch string) error {
	if len(pkg.OS) > 0 && !contains(pkg.OS, goos, normalizeOS) {
		return &IncompatibleError{Package: pkg.Name, Field: "os", Current: goos, Allowed: pkg.OS}
	}
	if len(pkg.CPU) > 0 && !contains(pkg.CPU, goarch, normalizeCPU) {
		return &IncompatibleError{Package: pkg.Name, Field: "cpu", Current: goarch, Allowed: pkg.CPU}
	}
	return nil
}

func contains(allowed []string, current string, normalize func(string) string) bool {
	want := normalize(current)
	for _, a := range allowed {
		if normalize(a) == want {
			return true
		}
	}
	return false
}

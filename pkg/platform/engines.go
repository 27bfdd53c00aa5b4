package platform

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"diem/pkg/registry"
)

// CheckEngines evaluates a package's runtime-engine constraints against the
// versions advertised in the environment (NODE_VERSION, BUN_VERSION, ...).
// Unlike platform checks these never fail an install: every unmet or
// unverifiable constraint comes back as a warning string.
func CheckEngines(pkg *registry.Package) []string {
	if len(pkg.Engines) == 0 {
		return nil
	}

	names := make([]string, 0, len(pkg.Engines))
	for name := range pkg.Engines {
		names = append(names, name)
	}
	sort.Strings(names)

	var warnings []string
	for _, name := range names {
		if w := checkEngine(pkg.Name, name, pkg.Engines[name]); w != "" {
			warnings = append(warnings, w)
		}
	}
	return warnings
}

func checkEngine(pkgName, engine, constraint string) string {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Sprintf("%s: unparseable %s constraint %q", pkgName, engine, constraint)
	}

	raw := os.Getenv(engineVersionVar(engine))
	if raw == "" {
		return fmt.Sprintf("%s: cannot verify %s %s (%s not set)",
			pkgName, engine, constraint, engineVersionVar(engine))
	}

	v, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return fmt.Sprintf("%s: cannot parse %s version %q", pkgName, engine, raw)
	}
	if !c.Check(v) {
		return fmt.Sprintf("%s: requires %s %s, found %s", pkgName, engine, constraint, raw)
	}
	return ""
}

// engineVersionVar maps an engine name to its version environment variable.
func engineVersionVar(engine string) string {
	name := strings.ToUpper(strings.ReplaceAll(engine, "-", "_"))
	return name + "_VERSION"
}

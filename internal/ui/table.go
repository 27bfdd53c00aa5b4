package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"diem/pkg/install"
	"diem/pkg/registry"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer *tabwriter.Writer
}

// NewTable creates a new table with the given headers, writing to stdout.
func NewTable(headers []string) *Table {
	return NewTableWriter(os.Stdout, headers)
}

// NewTableWriter creates a new table that writes to a specific writer.
func NewTableWriter(w io.Writer, headers []string) *Table {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(headers) > 0 {
		headerRow := make([]string, len(headers))
		for i, h := range headers {
			headerRow[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(tw, strings.Join(headerRow, "\t"))
	}
	return &Table{writer: tw}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row []string) {
	fmt.Fprintln(t.writer, strings.Join(row, "\t"))
}

// Render outputs the table.
func (t *Table) Render() {
	t.writer.Flush()
}

// PrintPackages prints a list of packages in a formatted table.
// The isInstalled callback marks rows for packages already on this machine.
func PrintPackages(packages []*registry.Package, isInstalled func(name string) bool) {
	if len(packages) == 0 {
		MutedMsg("No packages found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, Bold("PROVIDER")+"\t"+Bold("NAME")+"\t"+Bold("VERSION")+"\t"+Bold("DESCRIPTION"))

	for _, pkg := range packages {
		provider := ProviderName.Sprint(pkg.Provider)
		name := PackageName.Sprint(pkg.Name)
		version := PackageVersion.Sprint(pkg.Version)

		desc := pkg.Description
		if len(desc) > 50 {
			desc = desc[:47] + "..."
		}

		if isInstalled != nil && isInstalled(pkg.Name) {
			name = name + " " + Installed.Sprint("[installed]")
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", provider, name, version, desc)
	}

	w.Flush()
}

// PrintInstalled prints the local installation metadata as a table.
func PrintInstalled(meta *install.Metadata) {
	if meta.Len() == 0 {
		MutedMsg("No packages installed")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, Bold("NAME")+"\t"+Bold("VERSION")+"\t"+Bold("FROM")+"\t"+Bold("INSTALLED"))

	for _, name := range meta.Names() {
		rec, _ := meta.Get(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			PackageName.Sprint(name),
			PackageVersion.Sprint(rec.InstalledVersion),
			ProviderName.Sprint(rec.InstalledFrom),
			rec.InstallDate.Local().Format("2006-01-02 15:04"))
	}

	w.Flush()
}

// PrintPackageInfo prints detailed package information, joined with the
// local install record when the package is installed here.
func PrintPackageInfo(pkg *registry.Package, rec *install.Record) {
	if pkg == nil {
		ErrorMsg("No package information available")
		return
	}

	HeaderMsg("Package Information")

	printField("Name", pkg.Name)
	printField("Version", pkg.Version)
	printField("Provider", pkg.Provider)

	if pkg.Description != "" {
		printField("Description", pkg.Description)
	}

	if pkg.URL != "" {
		printField("URL", pkg.URL)
	}

	if len(pkg.Binaries) > 0 {
		printField("Binaries", strings.Join(pkg.Binaries, ", "))
	}

	if len(pkg.Dependencies) > 0 {
		printField("Dependencies", strings.Join(pkg.Dependencies, ", "))
	}

	if len(pkg.OptionalDependencies) > 0 {
		printField("Optional", strings.Join(pkg.OptionalDependencies, ", "))
	}

	if len(pkg.PeerDependencies) > 0 {
		printField("Peers", strings.Join(pkg.PeerDependencies, ", "))
	}

	if len(pkg.OS) > 0 {
		printField("OS", strings.Join(pkg.OS, ", "))
	}

	if len(pkg.CPU) > 0 {
		printField("CPU", strings.Join(pkg.CPU, ", "))
	}

	if pkg.Checksum != "" {
		printField("Checksum", pkg.Checksum)
	}

	if rec != nil {
		fmt.Println()
		printField("Installed", rec.InstalledVersion)
		printField("From", rec.InstalledFrom)
		if !rec.InstallDate.IsZero() {
			printField("Install Date", rec.InstallDate.Local().Format("2006-01-02 15:04:05"))
		}
		if len(rec.Files) > 0 {
			printField("Files", strings.Join(rec.Files, ", "))
		}
	}
}

// printField prints a single field with formatting.
func printField(label, value string) {
	fmt.Printf("  %s: %s\n", Cyan(label), value)
}

// PrintSearchResults prints search results grouped by provider.
func PrintSearchResults(packages []*registry.Package, isInstalled func(name string) bool) {
	if len(packages) == 0 {
		MutedMsg("No packages found")
		return
	}

	grouped := make(map[string][]*registry.Package)
	for _, pkg := range packages {
		grouped[pkg.Provider] = append(grouped[pkg.Provider], pkg)
	}

	providers := make([]string, 0, len(grouped))
	for provider := range grouped {
		providers = append(providers, provider)
	}
	sort.Strings(providers)

	HeaderMsg("Found %d results across %d providers", len(packages), len(grouped))

	for _, provider := range providers {
		pkgs := grouped[provider]
		fmt.Printf("\n%s (%d):\n", ProviderName.Sprint(provider+":"), len(pkgs))

		for _, pkg := range pkgs {
			name := PackageName.Sprint(pkg.Name)
			version := ""
			if pkg.Version != "" {
				version = " " + PackageVersion.Sprint(pkg.Version)
			}

			installedMark := ""
			if isInstalled != nil && isInstalled(pkg.Name) {
				installedMark = " " + Installed.Sprint("[installed]")
			}

			fmt.Printf("  %s%s%s\n", name, version, installedMark)

			if pkg.Description != "" {
				desc := pkg.Description
				if len(desc) > 70 {
					desc = desc[:67] + "..."
				}
				MutedMsg("    %s", desc)
			}
		}
	}
}

// PrintProviders prints configured provider namespaces, marking the default.
func PrintProviders(providers []string, defaultProvider string) {
	if len(providers) == 0 {
		MutedMsg("No providers configured")
		return
	}

	for _, p := range providers {
		if p == defaultProvider {
			fmt.Printf("  %s %s %s\n", SymbolArrow, ProviderName.Sprint(p), Muted.Sprint("(default)"))
		} else {
			fmt.Printf("    %s\n", ProviderName.Sprint(p))
		}
	}
}

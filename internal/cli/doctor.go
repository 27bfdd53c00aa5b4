package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"diem/internal/fsutil"
	"diem/internal/perms"
	"diem/internal/ui"
	"diem/pkg/cache"
	"diem/pkg/install"
	"diem/pkg/registry"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose installation issues",
	Long: `Check the shared and scratch volumes, the provider configuration
and the installed packages for common problems.

Doctor only reports; it never repairs anything itself.

Examples:
  diem doctor               # Run diagnostics`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	issues := 0

	ui.HeaderMsg("Running diagnostics...")

	ui.SuccessMsg("User: %s", paths.Username())

	// Volumes.
	ui.HeaderMsg("Volumes")
	if err := perms.CheckDirectory(cfg.General.ShareRoot, false); err != nil {
		ui.IssueMsg("Share volume %s: %v", cfg.General.ShareRoot, err)
		issues++
	} else {
		ui.SuccessMsg("Share volume: %s", cfg.General.ShareRoot)
	}

	if fsutil.Exists(paths.OwnRoot()) {
		if err := perms.CheckDirectory(paths.OwnRoot(), true); err != nil {
			ui.IssueMsg("Own namespace %s: %v", paths.OwnRoot(), err)
			issues++
		} else {
			ui.SuccessMsg("Own namespace: %s", paths.OwnRoot())
		}
	} else {
		ui.MutedMsg("Own namespace not created yet (first install or publish creates it)")
	}

	if err := perms.CheckDirectory(cfg.General.ScratchRoot, true); err != nil {
		ui.IssueMsg("Scratch volume %s: %v", cfg.General.ScratchRoot, err)
		issues++
	} else {
		ui.SuccessMsg("Scratch volume: %s", cfg.General.ScratchRoot)
	}

	// Providers.
	ui.HeaderMsg("Providers")
	providers := reg.Providers()
	if len(providers) == 0 {
		ui.WarningMsg("No providers configured")
		ui.MutedMsg("Register one with: diem provider add <username>")
	}
	for _, provider := range providers {
		if reg.Repository(provider).Exists() {
			marker := ""
			if provider == reg.DefaultProvider() {
				marker = " (default)"
			}
			ui.SuccessMsg("%s%s", provider, marker)
		} else {
			ui.IssueMsg("%s: repository missing under %s", provider, paths.RepositoryRoot(provider))
			issues++
		}
	}

	// PATH.
	ui.HeaderMsg("Environment")
	if onPath(paths.BinDir()) {
		ui.SuccessMsg("Bin directory is on PATH")
	} else {
		ui.WarningMsg("Bin directory is not on PATH")
		ui.MutedMsg("Add it with: export PATH=\"%s:$PATH\"", paths.BinDir())
		issues++
	}

	// Installed packages.
	issues += checkInstalled()

	// Locks.
	issues += checkLocks()

	// Cache.
	ui.HeaderMsg("Cache")
	if store, err := cache.Open(paths); err != nil {
		ui.WarningMsg("Artifact cache unavailable: %v", err)
	} else {
		count, _ := store.Count()
		size, _ := store.Size()
		ui.SuccessMsg("Cache: %d artifact(s), %s", count, formatSize(size))
		store.Close()
	}

	// Summary.
	ui.HeaderMsg("Summary")
	if issues == 0 {
		ui.SuccessMsg("No issues found. diem is ready to use.")
	} else {
		ui.WarningMsg("Found %d issue(s).", issues)
	}

	return nil
}

// checkInstalled verifies every metadata record still has its package
// directory, and that no bin symlink dangles.
func checkInstalled() int {
	issues := 0
	ui.HeaderMsg("Installed Packages")

	meta, err := install.LoadMetadata(paths.MetadataPath())
	if err != nil {
		ui.IssueMsg("Cannot read installation metadata: %v", err)
		return 1
	}

	if meta.Len() == 0 {
		ui.MutedMsg("No packages installed")
	}

	for _, name := range meta.Names() {
		rec, _ := meta.Get(name)
		if rec.InstalledFrom == "" {
			ui.IssueMsg("%s: metadata record has no provider", name)
			issues++
			continue
		}
		ref := registry.PackageReference{Provider: rec.InstalledFrom, Name: name}
		if !fsutil.Exists(paths.PackageDir(ref.DirName())) {
			ui.IssueMsg("%s: recorded as installed but %s is missing", name, paths.PackageDir(ref.DirName()))
			ui.MutedMsg("Reinstall it with: diem install %s --force", ref)
			issues++
			continue
		}
		ui.SuccessMsg("%s %s", name, rec.InstalledVersion)
	}

	issues += checkSymlinks()
	return issues
}

// checkSymlinks reports dangling symlinks in the bin directory.
func checkSymlinks() int {
	issues := 0
	entries, err := os.ReadDir(paths.BinDir())
	if err != nil {
		return 0
	}
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		link := filepath.Join(paths.BinDir(), entry.Name())
		if _, err := os.Stat(link); err != nil {
			ui.WarningMsg("Dangling symlink: %s", link)
			issues++
		}
	}
	return issues
}

// checkLocks reports lock files and whether their holders are alive.
// Doctor never removes a lock; that is an operator decision.
func checkLocks() int {
	issues := 0
	ui.HeaderMsg("Locks")

	locks, err := install.ListLocks(paths.LocksDir())
	if err != nil {
		ui.IssueMsg("Cannot read lock directory: %v", err)
		return 1
	}
	if len(locks) == 0 {
		ui.MutedMsg("No locks held")
		return 0
	}

	for _, lock := range locks {
		path := filepath.Join(paths.LocksDir(), lock.Name+".lock")
		switch {
		case lock.Stale():
			ui.WarningMsg("Stale lock: %s (pid %d is not running)", lock.Name, lock.PID)
			ui.MutedMsg("Remove it with: rm %s", path)
			issues++
		case lock.PID > 0:
			ui.InfoMsg("Lock held: %s (pid %d)", lock.Name, lock.PID)
		default:
			ui.WarningMsg("Unreadable lock: %s", path)
			issues++
		}
	}
	return issues
}

// onPath reports whether dir is one of the PATH entries.
func onPath(dir string) bool {
	for _, entry := range filepath.SplitList(os.Getenv("PATH")) {
		if entry == dir {
			return true
		}
	}
	return false
}

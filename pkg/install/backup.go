package install

import (
	"fmt"
	"os"

	"diem/internal/fsutil"
)

// backupPath returns the version-qualified backup sibling for a package
// directory.
func backupPath(dir, version string) string {
	return dir + ".backup-" + version
}

// snapshotDir copies a package directory to its backup sibling, replacing
// any stale backup left by an earlier attempt.
func snapshotDir(dir, version string) (string, error) {
	backup := backupPath(dir, version)
	if err := os.RemoveAll(backup); err != nil {
		return "", fmt.Errorf("failed to clear stale backup: %w", err)
	}
	if err := fsutil.CopyTree(dir, backup); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", dir, err)
	}
	return backup, nil
}

// restoreDir recreates a package directory from its backup, discarding
// whatever partial state the failed operation left behind.
func restoreDir(backup, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear partial state: %w", err)
	}
	if err := fsutil.CopyTree(backup, dir); err != nil {
		return fmt.Errorf("failed to restore %s: %w", dir, err)
	}
	return nil
}

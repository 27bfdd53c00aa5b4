// Package perms probes directory permissions before the install pipeline
// mutates anything. The pipeline calls this first so permission failures
// abort before any on-disk change.
package perms

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// PermissionError reports a directory the caller cannot use.
type PermissionError struct {
	Path  string
	Write bool
	Err   error
}

func (e *PermissionError) Error() string {
	mode := "read"
	if e.Write {
		mode = "write"
	}
	return fmt.Sprintf("insufficient permissions on %s (%s): %v", e.Path, mode, e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// CheckDirectory verifies path is a directory the current user can traverse
// and read, and write to when requireWrite is set.
func CheckDirectory(path string, requireWrite bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return &PermissionError{Path: path, Write: requireWrite, Err: err}
	}
	if !info.IsDir() {
		return &PermissionError{Path: path, Write: requireWrite, Err: fmt.Errorf("not a directory")}
	}

	mode := uint32(unix.R_OK | unix.X_OK)
	if requireWrite {
		mode |= unix.W_OK
	}
	if err := unix.Access(path, mode); err != nil {
		return &PermissionError{Path: path, Write: requireWrite, Err: err}
	}
	return nil
}

// IsOwner reports whether the current user owns path. Shared-volume roots
// are group-writable, so ownership is advisory; doctor reports it.
func IsOwner(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false, fmt.Errorf("no ownership information for %s", path)
	}
	return int(stat.Uid) == os.Getuid(), nil
}

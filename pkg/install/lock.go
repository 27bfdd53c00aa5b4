package install

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"diem/internal/fsutil"
)

const lockSuffix = ".lock"

// Lock is a held per-package install lock. The lock file carries the
// holder's PID; creation is atomic via O_EXCL, so two racing installs of
// the same package see exactly one winner.
//
// A lock left behind by a dead process is not reclaimed here. Doctor
// surfaces such locks; removing one is a deliberate operator action.
type Lock struct {
	path string
}

// Acquire takes the install lock for a package name, creating the lock
// directory if needed. An already-held lock fails with LockedError.
func Acquire(dir, name string) (*Lock, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	path := filepath.Join(dir, name+lockSuffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, &LockedError{Name: name, PID: readLockPID(path)}
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file. Releasing an already-released lock is a
// no-op.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LockInfo describes one lock file on disk, for diagnostics.
type LockInfo struct {
	Name     string
	PID      int
	Modified time.Time
}

// Stale reports whether the lock's recorded holder is no longer running.
func (l LockInfo) Stale() bool {
	return l.PID > 0 && !pidAlive(l.PID)
}

// ListLocks enumerates the lock files currently present.
func ListLocks(dir string) ([]LockInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var locks []LockInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), lockSuffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info := LockInfo{
			Name: strings.TrimSuffix(entry.Name(), lockSuffix),
			PID:  readLockPID(path),
		}
		if fi, err := entry.Info(); err == nil {
			info.Modified = fi.ModTime()
		}
		locks = append(locks, info)
	}
	return locks, nil
}

func readLockPID(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}

// pidAlive probes a process with signal 0. EPERM still means the process
// exists, just owned by someone else.
func pidAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}

package install

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked reports that another install of the same package is in
	// flight.
	ErrLocked = errors.New("install already in progress")

	// ErrBinaryExists reports a bin-directory collision without force.
	ErrBinaryExists = errors.New("binary already exists")

	// ErrScriptFailed reports a nonzero install-script exit.
	ErrScriptFailed = errors.New("install script failed")

	// ErrExtractFailed reports a nonzero archive-extraction exit.
	ErrExtractFailed = errors.New("archive extraction failed")

	// ErrNotInstalled reports an operation on a package with no
	// installation record.
	ErrNotInstalled = errors.New("package is not installed")
)

// LockedError carries the holder recorded in an existing lock file. PID is
// zero when the lock file could not be read.
type LockedError struct {
	Name string
	PID  int
}

func (e *LockedError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("install of %s already in progress (pid %d)", e.Name, e.PID)
	}
	return fmt.Sprintf("install of %s already in progress", e.Name)
}

func (e *LockedError) Unwrap() error { return ErrLocked }

// BinaryExistsError reports a link path already occupied in the shared bin
// directory.
type BinaryExistsError struct {
	Binary string
	Link   string
}

func (e *BinaryExistsError) Error() string {
	return fmt.Sprintf("binary %s already exists at %s (use force to replace)", e.Binary, e.Link)
}

func (e *BinaryExistsError) Unwrap() error { return ErrBinaryExists }

// ScriptError carries the captured stderr of a failed install script.
type ScriptError struct {
	Package  string
	ExitCode int
	Stderr   string
}

func (e *ScriptError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("install script for %s exited %d: %s", e.Package, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("install script for %s exited %d", e.Package, e.ExitCode)
}

func (e *ScriptError) Unwrap() error { return ErrScriptFailed }

// ExtractError carries the captured stderr of a failed extraction.
type ExtractError struct {
	Archive string
	Stderr  string
}

func (e *ExtractError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("failed to extract %s: %s", e.Archive, e.Stderr)
	}
	return fmt.Sprintf("failed to extract %s", e.Archive)
}

func (e *ExtractError) Unwrap() error { return ErrExtractFailed }

// NotInstalledError names the package missing from the installation
// metadata.
type NotInstalledError struct {
	Name string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("package %s is not installed", e.Name)
}

func (e *NotInstalledError) Unwrap() error { return ErrNotInstalled }

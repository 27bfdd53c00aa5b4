package cli

import (
	"errors"

	"diem/internal/ui"
	"diem/pkg/install"
	"diem/pkg/registry"
	"diem/pkg/resolver"
)

var (
	// ErrAborted is returned when the user aborts an operation.
	ErrAborted = errors.New("operation aborted by user")

	// ErrNoProviders is returned when a command needs at least one
	// configured provider namespace.
	ErrNoProviders = errors.New("no providers configured")
)

// printError reports a command's failure once, with a followup hint for
// the failure modes users can act on directly.
func printError(err error) {
	if errors.Is(err, ErrAborted) {
		ui.MutedMsg("Aborted.")
		return
	}

	ui.ErrorMsg("%v", err)

	switch {
	case errors.Is(err, ErrNoProviders):
		ui.ErrorHintMsg("Add one with 'diem provider add <username>'")
	case errors.Is(err, registry.ErrNoDefaultProvider):
		ui.ErrorHintMsg("Set one with 'diem provider default <username>'")
	case errors.Is(err, install.ErrBinaryExists):
		ui.ErrorHintMsg("Re-run with --force to replace the existing binary")
	case errors.Is(err, install.ErrLocked):
		ui.ErrorHintMsg("Another diem process holds this package's lock; 'diem doctor' shows stale locks")
	case errors.Is(err, registry.ErrVersionExists):
		ui.ErrorHintMsg("Published versions are immutable; bump the manifest version and retry")
	case errors.Is(err, resolver.ErrCycle):
		ui.ErrorHintMsg("The dependency chain above loops back on itself; fix the manifests involved")
	}
}

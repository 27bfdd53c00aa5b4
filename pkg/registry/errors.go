package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a package was not found in any consulted provider.
	ErrNotFound = errors.New("package not found")

	// ErrInvalidReference indicates a reference string that is neither
	// "provider:name" nor a bare name.
	ErrInvalidReference = errors.New("invalid package reference")

	// ErrNoDefaultProvider indicates a bare name was used with no default
	// provider configured.
	ErrNoDefaultProvider = errors.New("no default provider configured")

	// ErrInvalidManifest indicates a manifest file that exists but cannot
	// be parsed or fails validation.
	ErrInvalidManifest = errors.New("invalid package manifest")

	// ErrInvalidConfig indicates a malformed registry configuration file.
	ErrInvalidConfig = errors.New("invalid registry configuration")

	// ErrProviderExists indicates an attempt to add a provider twice.
	ErrProviderExists = errors.New("provider already configured")

	// ErrProviderNotConfigured indicates an operation on a provider that is
	// not in the registry configuration.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrProviderNotFound indicates a provider namespace that does not
	// exist on the shared volume.
	ErrProviderNotFound = errors.New("provider namespace not found")

	// ErrVersionExists indicates a publish of an already-published version.
	// Published versions are immutable; republishing requires a new version.
	ErrVersionExists = errors.New("version already published")
)

// NotFoundError reports which package was missing from which provider.
type NotFoundError struct {
	Name     string
	Provider string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package %q not found in provider %q", e.Name, e.Provider)
}

// Unwrap makes the error match ErrNotFound with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

package registry

import (
	"fmt"
	"regexp"
	"strings"
)

// referenceSeparator splits provider from package name in user input.
const referenceSeparator = ":"

// dirSeparator joins provider and name into an on-disk directory name.
// Provider and package names therefore may not contain underscores.
const dirSeparator = "_"

var validNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.+-]*$`)

// PackageReference addresses a package as a (provider, name) pair.
type PackageReference struct {
	Provider string
	Name     string
}

// ParseReference parses "provider:name" or a bare "name". A bare name
// resolves against defaultProvider and fails with ErrNoDefaultProvider when
// none is configured.
func ParseReference(text, defaultProvider string) (PackageReference, error) {
	parts := strings.Split(text, referenceSeparator)
	switch len(parts) {
	case 1:
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return PackageReference{}, fmt.Errorf("%w: %q", ErrInvalidReference, text)
		}
		if defaultProvider == "" {
			return PackageReference{}, fmt.Errorf("%w (use provider:name for %q)", ErrNoDefaultProvider, name)
		}
		return PackageReference{Provider: defaultProvider, Name: name}, nil
	case 2:
		provider := strings.TrimSpace(parts[0])
		name := strings.TrimSpace(parts[1])
		if provider == "" || name == "" {
			return PackageReference{}, fmt.Errorf("%w: %q", ErrInvalidReference, text)
		}
		return PackageReference{Provider: provider, Name: name}, nil
	default:
		return PackageReference{}, fmt.Errorf("%w: %q", ErrInvalidReference, text)
	}
}

// ParseDirName recovers a reference from an on-disk package directory name.
// The name must contain exactly one underscore so that DirName round-trips.
func ParseDirName(dir string) (PackageReference, error) {
	parts := strings.Split(dir, dirSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return PackageReference{}, fmt.Errorf("%w: malformed directory name %q", ErrInvalidReference, dir)
	}
	return PackageReference{Provider: parts[0], Name: parts[1]}, nil
}

// String formats the reference back to "provider:name".
func (r PackageReference) String() string {
	return r.Provider + referenceSeparator + r.Name
}

// DirName formats the deterministic on-disk directory name "provider_name".
func (r PackageReference) DirName() string {
	return r.Provider + dirSeparator + r.Name
}

// Validate rejects names that cannot round-trip through DirName.
func (r PackageReference) Validate() error {
	if err := ValidateName(r.Provider); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := ValidateName(r.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	return nil
}

// ValidateName checks a provider or package name: lowercase alphanumeric
// with ., + and - allowed after the first character. Underscores and colons
// are excluded because they are the directory and reference separators.
func ValidateName(name string) error {
	if !validNamePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid name %q", ErrInvalidReference, name)
	}
	return nil
}
